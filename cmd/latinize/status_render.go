package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
)

const ansiReset = "\x1b[0m"

type statusStyle struct {
	label string
	color string
}

var statusStyles = map[statusKind]statusStyle{
	statusInfo: {"INFO", "\x1b[34m"},
	statusOK:   {"OK", "\x1b[32m"},
	statusWarn: {"WARN", "\x1b[33m"},
}

const statusLabelWidth = 12

// renderStatusLine formats "  label:      [KIND] message", colored per kind.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	status := "[" + style.label + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", status)
	if colorize && style.color != "" {
		return style.color + line + ansiReset
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(line))
	if colorize {
		color := statusStyles[statusInfo].color
		return []string{color + line + ansiReset, color + rule + ansiReset}
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	return isInteractive(writer) && os.Getenv("NO_COLOR") == ""
}
