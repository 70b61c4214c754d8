// Package commands implements the prov-log CLI commands.
package commands

import (
	"fmt"
	"strings"

	"github.com/mash-protocol/devprov/pkg/log"
)

// ParseLayerFlag parses a layer string from a command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	return parseLayer(s)
}

func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "listener":
		return log.LayerListener, nil
	case "binding":
		return log.LayerBinding, nil
	case "orchestrator":
		return log.LayerOrchestrator, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be listener, binding, or orchestrator)", s)
	}
}

// ParseDirectionFlag parses a direction string from a command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	return parseDirection(s)
}

func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	case "none", "-":
		return log.DirectionNone, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in, out or none)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "datagram":
		return log.CategoryDatagram, nil
	case "message":
		return log.CategoryMessage, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be datagram, message, state, or error)", s)
	}
}

// eventType returns a short label for the event payload.
func eventType(event log.Event) string {
	switch {
	case event.Datagram != nil:
		return "Datagram"
	case event.Message != nil:
		return event.Message.Kind.String()
	case event.StateChange != nil:
		return "State"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortID returns the first 8 characters of a session ID.
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
