// Package history persists gallery download outcomes in SQLite. The
// completed table is the authoritative "done" set and feeds folder name
// disambiguation; the resume table marks galleries that were stopped or
// failed so a UI can surface them for manual re-enqueue after a restart.
package history
