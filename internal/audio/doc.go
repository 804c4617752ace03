// Package audio plays raw 16-bit PCM through the system audio device.
package audio
