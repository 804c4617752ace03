// Package translate turns the recognized sentence into the selected target
// language, either through the prediction backend's /translate endpoint or
// directly through OpenAI.
package translate
