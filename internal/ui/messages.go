package ui

import "gateway/internal/fsmodel"

type connectResultMsg struct {
	banner string
	err    error
}

type listResultMsg struct {
	pane    pane
	entries []fsmodel.Entry
	err     error
}

type transferProgressMsg struct {
	transferred int64
	total       int64
}

type transferDoneMsg struct {
	err error
}

type dirSizeResultMsg struct {
	total int64
	count int
	err   error
}

type editDoneMsg struct {
	changed bool
	err     error
}

type opDoneMsg struct {
	label string
	err   error
}
