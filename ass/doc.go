// Package ass converts QRC word-timed lyrics into Advanced SubStation Alpha
// karaoke subtitles.
//
// Each "[start,duration]" line becomes one Dialogue event. Word timings
// "(start,duration)" become {\kN} tags in centiseconds, with pauses tagged
// separately so that highlighting stays in sync with the original timing.
package ass
