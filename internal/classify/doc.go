// Package classify assigns validation statuses to extracted occurrences.
//
// Status is a closed enumeration. Classify maps a match result and
// extraction-time flags onto it with a total decision table, and
// CanTransition encodes which later status changes reviewers may make:
// anything may be promoted to confirmed, nothing returns to the review
// states once it has left them.
package classify
