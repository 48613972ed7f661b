// Package video unifies video generation vendors behind one asynchronous
// job model: start a generation, then poll or await its completion.
package video
