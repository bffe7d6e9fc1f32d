// Package queue holds playback items waiting for a free voice, ordered by
// priority with first-in-first-out tie breaking.
package queue
