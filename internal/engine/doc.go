// Package engine runs transcript searches.
//
// The Orchestrator moves each submission through Idle, Loading and a terminal
// Success or Error state, answering from the result cache when a fresh entry
// exists and from the search service otherwise. The MetadataLoader supplies
// the company and quarter vocabulary used to validate filters.
package engine
