// Package state implements persistence for the alarm store.
//
// The FileRepository stores and loads a Snapshot as YAML on disk so that
// latched trips and acknowledgments survive a restart of the supervisor.
package state
