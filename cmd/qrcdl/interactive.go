package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ytget/qrcdl"
	"github.com/ytget/qrcdl/types"
)

var errQuit = errors.New("quit")

// prompter reads one trimmed line per question.
type prompter struct {
	sc  *bufio.Scanner
	out io.Writer
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(p.sc.Text()), nil
}

// runInteractive drives the menu: find a song by search or by id, pick a
// format, save, repeat until the user quits or input ends.
func (a *app) runInteractive(ctx context.Context, in io.Reader, out io.Writer) error {
	p := &prompter{sc: bufio.NewScanner(in), out: out}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		headColor.Fprintln(out, "\n=== QQ Music lyrics ===")
		fmt.Fprintln(out, "1. Search songs")
		fmt.Fprintln(out, "2. Enter song ID or MID")
		fmt.Fprintln(out, "q. Quit")

		choice, err := p.ask("> ")
		if err != nil {
			return ignoreQuit(err)
		}

		var song *types.Song
		switch strings.ToLower(choice) {
		case "1":
			song, err = a.pickFromSearch(ctx, p)
		case "2":
			song, err = a.lookupSong(ctx, p)
		case "q":
			return nil
		default:
			errColor.Fprintln(out, "Unknown option")
			continue
		}
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			errColor.Fprintf(out, "Error: %v\n", err)
			continue
		}
		if song == nil {
			continue
		}

		if err := a.saveWithPrompt(ctx, p, *song); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			errColor.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func ignoreQuit(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func (a *app) pickFromSearch(ctx context.Context, p *prompter) (*types.Song, error) {
	keyword, err := p.ask("Keyword: ")
	if err != nil || keyword == "" {
		return nil, err
	}
	songs, err := a.dl.Search(ctx, keyword)
	if err != nil {
		return nil, err
	}
	printSongs(p.out, songs)
	if len(songs) == 0 {
		return nil, nil
	}

	for {
		choice, err := p.ask("Pick a song (number, b to go back): ")
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(choice, "b") {
			return nil, nil
		}
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(songs) {
			errColor.Fprintf(p.out, "Enter a number between 1 and %d\n", len(songs))
			continue
		}
		return &songs[n-1], nil
	}
}

func (a *app) lookupSong(ctx context.Context, p *prompter) (*types.Song, error) {
	id, err := p.ask("Song ID or MID: ")
	if err != nil || id == "" {
		return nil, err
	}
	song, err := a.dl.Song(ctx, id)
	if err != nil {
		return nil, err
	}
	printSongs(p.out, []types.Song{*song})
	return song, nil
}

func (a *app) saveWithPrompt(ctx context.Context, p *prompter, song types.Song) error {
	fmt.Fprintln(p.out, "1. LRC")
	fmt.Fprintln(p.out, "2. QRC")
	fmt.Fprintln(p.out, "3. ASS")
	fmt.Fprintln(p.out, "q. Back")

	for {
		choice, err := p.ask("Format: ")
		if err != nil {
			return err
		}
		var f qrcdl.Format
		switch strings.ToLower(choice) {
		case "1":
			f = qrcdl.FormatLRC
		case "2":
			f = qrcdl.FormatQRC
		case "3":
			f = qrcdl.FormatASS
		case "q":
			return nil
		default:
			errColor.Fprintln(p.out, "Unknown format")
			continue
		}

		files, err := a.dl.Save(ctx, song, f)
		if err != nil {
			return err
		}
		for _, path := range files {
			okColor.Fprint(p.out, "Saved: ")
			fmt.Fprintln(p.out, path)
		}
		return nil
	}
}
