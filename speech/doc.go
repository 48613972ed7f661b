// Package speech unifies text-to-speech and speech-to-text vendors behind
// one calling convention. Providers register under a name; the manager
// routes by that name and applies transport retry.
package speech
