// Package speech speaks text through a local synthesizer.
//
// A Synthesizer enumerates voices, speaks utterances and cancels speech.
// Two engines are provided: espeak-ng, which speaks directly, and gTTS,
// which fetches MP3 from Google Translate, converts it to PCM with ffmpeg
// and plays it through package audio. Speaker sits in front of either and
// picks a voice for the requested language.
package speech
