// Package cli is the interactive terminal front end of the SnipCity client.
//
// It plays the part a sidebar and its panels play in an editor: it renders
// the snippet list kept by listsync, turns typed commands into ui.Intents and
// dispatches them to App, which implements ui.Handler on top of the API
// client, the sign-in service and the list synchronizer.
//
// Typical session:
//
//	snipcity (all)> signin
//	snipcity (all)> list
//	snipcity (all)> more
//	snipcity (all)> mine
//	snipcity (mine)> show 2
//	snipcity (mine)> copy 2
//	snipcity (mine)> edit 2
//	snipcity (mine)> exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// input ends.
package cli
