// Package cache keeps synthesized speech on disk so repeated phrases are
// spoken without another round trip to the speech service.
package cache
