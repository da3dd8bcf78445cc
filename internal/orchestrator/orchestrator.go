// Package orchestrator implements the transfer/editor activity state
// machine that drives both panes of the explorer, independent of any UI
// toolkit so it can be exercised headlessly in tests (spec.md §4).
package orchestrator

import (
	"context"
	"time"

	"gateway/internal/fsmodel"
	"gateway/internal/remotefs"
)

// Activity is the state machine's current mode.
type Activity int

const (
	ActivityConnecting Activity = iota
	ActivityExplorer
	ActivityDialog
	ActivityTransferring
	ActivityDisconnected
)

func (a Activity) String() string {
	switch a {
	case ActivityConnecting:
		return "connecting"
	case ActivityExplorer:
		return "explorer"
	case ActivityDialog:
		return "dialog"
	case ActivityTransferring:
		return "transferring"
	case ActivityDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// DialogKind discriminates the popups the explorer can show while still
// remembering it should return to ActivityExplorer when dismissed
// (spec.md §4.5).
type DialogKind int

const (
	DialogNone DialogKind = iota
	DialogConfirmDelete
	DialogMkdir
	DialogRename
	DialogGoto
	DialogDirectorySize
	DialogError
)

// Orchestrator holds the two panes and the current activity. It never
// imports a UI package; internal/ui wraps it in a tea.Model.
type Orchestrator struct {
	Local  remotefs.Filesystem
	Remote remotefs.Filesystem

	LocalWd  string
	RemoteWd string

	Activity   Activity
	Dialog     DialogKind
	LastError  error
	LastBanner string

	connectedAt time.Time
}

// New builds an Orchestrator with the given local and remote backends.
// Remote is connected lazily via Connect.
func New(local, remote remotefs.Filesystem) *Orchestrator {
	return &Orchestrator{
		Local:    local,
		Remote:   remote,
		Activity: ActivityConnecting,
	}
}

// Connect authenticates against the remote backend, then seeds both
// working directories from each side's pwd and moves to the explorer
// (spec.md §4.1, SPEC_FULL.md §10.4). It lists neither pane; the first
// listing is issued by the caller (internal/ui's Init).
func (o *Orchestrator) Connect(address string, port int, username, password string) error {
	banner, err := o.Remote.Connect(address, port, username, password)
	if err != nil {
		o.Activity = ActivityDisconnected
		o.LastError = err
		return err
	}
	o.LastBanner = banner

	localWd, err := o.Local.Pwd()
	if err != nil {
		o.Activity = ActivityDisconnected
		o.LastError = err
		return err
	}
	o.LocalWd = localWd

	remoteWd, err := o.Remote.Pwd()
	if err != nil {
		o.Activity = ActivityDisconnected
		o.LastError = err
		return err
	}
	o.RemoteWd = remoteWd

	o.Activity = ActivityExplorer
	o.Dialog = DialogNone
	o.connectedAt = time.Now()
	return nil
}

// ConnectedAt returns when Connect last succeeded, for recent-connections
// bookkeeping (spec.md §5.3).
func (o *Orchestrator) ConnectedAt() time.Time {
	return o.connectedAt
}

// Disconnect tears down the remote session and moves to the terminal
// disconnected state.
func (o *Orchestrator) Disconnect() error {
	err := o.Remote.Disconnect()
	o.Activity = ActivityDisconnected
	return err
}

// OpenDialog transitions into a popup without losing the explorer state
// underneath it.
func (o *Orchestrator) OpenDialog(kind DialogKind) {
	o.Dialog = kind
	o.Activity = ActivityDialog
}

// CloseDialog returns to the explorer.
func (o *Orchestrator) CloseDialog() {
	o.Dialog = DialogNone
	o.Activity = ActivityExplorer
}

// ListLocal lists the local pane's current directory.
func (o *Orchestrator) ListLocal() ([]fsmodel.Entry, error) {
	return o.Local.ListDir(o.LocalWd)
}

// ListRemote lists the remote pane's current directory.
func (o *Orchestrator) ListRemote() ([]fsmodel.Entry, error) {
	return o.Remote.ListDir(o.RemoteWd)
}

// ChangeLocalDir changes the local pane's working directory.
func (o *Orchestrator) ChangeLocalDir(path string) error {
	wd, err := o.Local.ChangeDir(path)
	if err != nil {
		return err
	}
	o.LocalWd = wd
	return nil
}

// ChangeRemoteDir changes the remote pane's working directory.
func (o *Orchestrator) ChangeRemoteDir(path string) error {
	wd, err := o.Remote.ChangeDir(path)
	if err != nil {
		return err
	}
	o.RemoteWd = wd
	return nil
}

// Remove deletes entry from fs, recursing into directories via the
// contract's polymorphic Remove so the same call site handles both panes
// (spec.md §4.7).
func (o *Orchestrator) Remove(fs remotefs.Filesystem, entry fsmodel.Entry) error {
	return fs.Remove(entry)
}

// DirectorySize computes the recursive total size of dir by walking it
// through the contract, so the same code answers the question for either
// pane regardless of backend (spec.md §4.7).
func DirectorySize(ctx context.Context, fs remotefs.Filesystem, dir fsmodel.Entry) (int64, int, error) {
	if dir.Kind != fsmodel.KindDirectory {
		return dir.Size, 1, nil
	}
	var total int64
	var count int
	children, err := fs.ListDir(dir.Path)
	if err != nil {
		return 0, 0, err
	}
	for _, child := range children {
		select {
		case <-ctx.Done():
			return total, count, ctx.Err()
		default:
		}
		if child.Kind == fsmodel.KindDirectory && !child.IsSymlink() {
			childTotal, childCount, err := DirectorySize(ctx, fs, child)
			if err != nil {
				return total, count, err
			}
			total += childTotal
			count += childCount
			continue
		}
		total += child.Size
		count++
	}
	return total, count, nil
}
