package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotInPack marks stickers that do not belong to any pack. The user
	// can fix this by sending a different sticker, so it gets its own
	// user-facing message.
	ErrNotInPack = errors.New("sticker not in a pack")
	// ErrResolution marks failures to obtain fetch URLs. Fatal to that
	// pack run.
	ErrResolution = errors.New("resolution failure")
	// ErrUpload marks republish upload failures. The link cache is left
	// untouched.
	ErrUpload = errors.New("upload failure")
	// ErrConfiguration marks operations refused because required
	// configuration is absent.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks everything else that may succeed on retry.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UserMessage converts a pipeline error into the short notice shown to the
// requester. Details never leak; they belong in the logs.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInPack):
		return "That sticker doesn't belong to a pack, so there's nothing to download. Try one from a sticker pack."
	case errors.Is(err, ErrConfiguration):
		return "That feature isn't set up on this bot."
	default:
		return "Sorry, something went wrong processing that pack. Please try again later."
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
