// Package store persists review runs so a suspended or failed run can be
// inspected and resumed later.
//
// SQLite is the only backend. Each run is one row holding the full
// workflow.State as JSON plus a few indexed columns for listing. Engine
// events can be recorded alongside by using the store as a notify.Notifier.
package store
