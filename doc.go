// Package qrcdl downloads lyrics from the QQ Music lyric service.
//
// Features:
//   - Song search and lookup by numeric id or mid
//   - Word-timed QRC lyrics with translation and romanization channels
//   - Line-timed LRC lyrics
//   - Conversion of word-timed lyrics into ASS karaoke subtitles
//
// Example:
//
//	d := qrcdl.New().WithOutputDir("lyrics")
//	songs, err := d.Search(ctx, "晴天")
//	if err != nil || len(songs) == 0 {
//		return err
//	}
//	files, err := d.Save(ctx, songs[0], qrcdl.FormatASS)
package qrcdl
