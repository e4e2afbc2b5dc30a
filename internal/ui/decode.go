package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Johndiddles/snipcity-vscode-extension/internal/apperror"
	"github.com/Johndiddles/snipcity-vscode-extension/internal/model"
)

// ErrUnknownCommand is returned by DecodeIntent for a command it does not know.
var ErrUnknownCommand = errors.New("ui: unknown command")

// envelope is the part every message shares.
type envelope struct {
	Command string `json:"command"`
}

// DecodeIntent parses a posted message such as
//
//	{"command": "copy", "id": "65f1c0..."}
//
// into its Intent. Unknown commands and missing required fields are errors.
func DecodeIntent(data []byte) (Intent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("ui: decoding message: %w", err)
	}

	var (
		in  Intent
		err error
	)
	switch env.Command {
	case CmdToggleMode:
		in, err = decodeAs[ToggleMode](data)
	case CmdRefreshSnippets:
		in = RefreshSnippets{}
	case CmdLoadMore:
		in = LoadMore{}
	case CmdCopy:
		in, err = decodeAs[Copy](data)
	case CmdOpenSnippet:
		in, err = decodeAs[OpenSnippet](data)
	case CmdAddSnippet:
		in, err = decodeAs[AddSnippet](data)
	case CmdEditSnippet:
		in, err = decodeAs[EditSnippet](data)
	case CmdViewOnWeb:
		in, err = decodeAs[ViewOnWeb](data)
	case CmdSignIn:
		in, err = decodeAs[SignIn](data)
	case CmdSignOut:
		in = SignOut{}
	case CmdResync:
		in = Resync{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Command)
	}
	if err != nil {
		return nil, fmt.Errorf("ui: decoding %s: %w", env.Command, err)
	}

	if err := Validate(in); err != nil {
		return nil, err
	}
	return in, nil
}

func decodeAs[T Intent](data []byte) (Intent, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate checks the fields an intent cannot do without.
func Validate(in Intent) error {
	switch v := in.(type) {
	case ToggleMode:
		if _, err := model.ParseScope(string(v.Mode)); err != nil {
			return apperror.ValidationFailed("mode", err.Error())
		}
	case Copy:
		return requireID(v.ID)
	case OpenSnippet:
		return requireID(v.ID)
	case EditSnippet:
		return requireID(v.ID)
	case ViewOnWeb:
		return requireID(v.ID)
	}
	return nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.ValidationFailed("id", "a snippet id is required")
	}
	return nil
}
