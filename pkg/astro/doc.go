// Package astro computes the six daily prayer instants from the position of
// the sun. It is the calculation backend of muezzin: a pure function of
// coordinates, convention angles, Asr shadow factor, minute adjustments and a
// civil date. It knows nothing about overrides, time zones or "today".
//
// The solar model is the low-precision almanac formula (accurate to about a
// minute between 1950 and 2050), iterated twice around the expected time of
// each event.
package astro
