// Package history persists detected failures and fired actions in SQLite.
//
// The store is append-only: every matched line becomes a failure event and
// every reached limit becomes a trigger event tagged with the action that ran
// and its error, if any. Events carry the run id of the daemon process that
// produced them so separate runs can be told apart in `authmon history`.
package history
