// Package main provides the klyrtool CLI: inspect, import, time, and
// export karaoke lyric timing data, and embed it into tagged MIDI files.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	defaultTicksPerBeat = 480
	defaultMode         = "tick"
)

var (
	importTitle  string
	importArtist string
	importKey    string
	importOut    string

	timeTaps string
	timeOut  string

	exportCur          string
	exportLyr          string
	exportJSON         string
	exportMode         string
	exportTicksPerBeat int

	embedOut string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "klyrtool",
		Short:         "Karaoke lyric timing toolkit",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newTimeCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newEmbedCmd())
	return rootCmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print lyric and timing information from a .mid, .lyr, .cur, or project file",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfoCmd,
	}
}

func runInfoCmd(cmd *cobra.Command, args []string) error {
	filename := args[0]
	out := cmd.OutOrStdout()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mid", ".midi", ".kar":
		song, err := ReadMidiFile(filename)
		if err != nil {
			return err
		}
		printMidiInfo(out, song, filename)
		return nil
	case ".lyr":
		file, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("failed to open lyr file: %w", err)
		}
		defer file.Close()
		lyr, err := ReadLyrFile(file)
		if err != nil {
			return err
		}
		printLyrInfo(out, lyr)
		return nil
	case ".cur":
		file, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("failed to open cursor file: %w", err)
		}
		defer file.Close()
		cursors, err := ReadCurFile(file)
		if err != nil {
			return err
		}
		printCurInfo(out, cursors)
		return nil
	case ".json":
		project, err := readProjectFile(filename)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Project: %s - %s\n\n", project.Title, project.Artist)
		FormatWordTable(out, project.Words)
		return nil
	default:
		return fmt.Errorf("unsupported file type: %s", filename)
	}
}

func printMidiInfo(out io.Writer, song *smf.SMF, filename string) {
	fmt.Fprintf(out, "MIDI File: %s\n", filename)
	fmt.Fprintf(out, "Format: %d\n", song.Format())
	if tf, ok := song.TimeFormat.(smf.MetricTicks); ok {
		fmt.Fprintf(out, "Ticks per beat: %d\n", tf)
	} else {
		fmt.Fprintf(out, "Time format: %v\n", song.TimeFormat)
	}
	fmt.Fprintf(out, "Number of tracks: %d\n\n", len(song.Tracks))

	data, chords := ExtractKLyr(song)

	if len(data.Info) > 0 {
		fmt.Fprintln(out, "Song info:")
		keys := make([]string, 0, len(data.Info))
		for k := range data.Info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s: %s\n", k, data.Info[k])
		}
		fmt.Fprintln(out)
	}

	if len(chords) > 0 {
		fmt.Fprintf(out, "Chords: %d\n", len(chords))
		for _, chord := range chords {
			fmt.Fprintf(out, "  %6d %s\n", chord.Tick, chord.Chord)
		}
		fmt.Fprintln(out)
	}

	if len(data.Lines) > 0 {
		var words []Word
		for _, line := range data.Lines {
			words = append(words, line...)
		}
		fmt.Fprintf(out, "Lyrics: %d lines, %d words\n", len(data.Lines), len(words))
		FormatWordTable(out, words)
	} else {
		fmt.Fprintln(out, "No embedded lyrics found")
	}
}

func printLyrInfo(out io.Writer, lyr *LyrFile) {
	fmt.Fprintf(out, "Title:  %s\n", lyr.Title)
	fmt.Fprintf(out, "Artist: %s\n", lyr.Artist)
	fmt.Fprintf(out, "Key:    %s\n\n", lyr.Key)
	for i, line := range lyr.Lines {
		fmt.Fprintf(out, "%3d: %s\n", i, line)
	}
}

func printCurInfo(out io.Writer, cursors []int) {
	fmt.Fprintf(out, "Cursor values: %d\n", len(cursors))
	if len(cursors) > 0 {
		fmt.Fprintf(out, "First: %d\n", cursors[0])
		fmt.Fprintf(out, "Last:  %d\n", cursors[len(cursors)-1])
	}
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <lyrics.txt|file.lyr>",
		Short: "Tokenize raw lyric text into an untimed project",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importTitle, "title", "", "song title")
	cmd.Flags().StringVar(&importArtist, "artist", "", "song artist")
	cmd.Flags().StringVar(&importKey, "key", "", "song key")
	cmd.Flags().StringVarP(&importOut, "out", "o", "project.json", "output project file")
	return cmd
}

func runImportCmd(_ *cobra.Command, args []string) error {
	filename := args[0]
	project := &Project{Title: importTitle, Artist: importArtist, Key: importKey}

	if strings.EqualFold(filepath.Ext(filename), ".lyr") {
		file, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("failed to open lyr file: %w", err)
		}
		defer file.Close()
		lyr, err := ReadLyrFile(file)
		if err != nil {
			return err
		}
		project.Words = lyr.Words()
		if project.Title == "" {
			project.Title = lyr.Title
		}
		if project.Artist == "" {
			project.Artist = lyr.Artist
		}
		if project.Key == "" {
			project.Key = lyr.Key
		}
	} else {
		raw, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read lyric text: %w", err)
		}
		project.Words = ImportLyricText(string(raw))
	}

	if len(project.Words) == 0 {
		return fmt.Errorf("no words found in %s", filename)
	}
	return writeProjectFile(importOut, project)
}

func newTimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "time <project.json>",
		Short: "Apply a tap log to an untimed project",
		Long: `Apply a tap log to a project. The tap file carries one playback
timestamp per line; the first tap starts the first word and every
following tap closes the current word and opens the next. A line of the
form "< N" steps the capture back to word N before the next tap.`,
		Args: cobra.ExactArgs(1),
		RunE: runTimeCmd,
	}
	cmd.Flags().StringVar(&timeTaps, "taps", "", "tap log file (required)")
	cmd.Flags().StringVarP(&timeOut, "out", "o", "", "output project file (default: overwrite input)")
	if err := cmd.MarkFlagRequired("taps"); err != nil {
		panic(err)
	}
	return cmd
}

func runTimeCmd(_ *cobra.Command, args []string) error {
	project, err := readProjectFile(args[0])
	if err != nil {
		return err
	}

	taps, err := os.Open(timeTaps)
	if err != nil {
		return fmt.Errorf("failed to open tap log: %w", err)
	}
	defer taps.Close()

	session := NewTimingSession(project.Words)
	if err := applyTapLog(session, taps); err != nil {
		return err
	}
	project.Words = session.Words()

	outPath := timeOut
	if outPath == "" {
		outPath = args[0]
	}
	return writeProjectFile(outPath, project)
}

// applyTapLog drives a timing session from a tap log stream: timestamps
// capture forward, "< N" lines step backward for correction.
func applyTapLog(session *TimingSession, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	started := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if rest, ok := strings.CutPrefix(line, "<"); ok {
			target, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				return fmt.Errorf("tap log line %d: invalid correction target %q", lineNo, line)
			}
			if _, ok := session.CorrectTimingStep(target); !ok {
				return fmt.Errorf("tap log line %d: cannot correct to word %d", lineNo, target)
			}
			started = false
			continue
		}

		stamp, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return fmt.Errorf("tap log line %d: invalid timestamp %q", lineNo, line)
		}

		if !started {
			if !session.StartTiming(stamp) {
				return fmt.Errorf("tap log line %d: cannot start timing at word %d", lineNo, session.State().CurrentIndex)
			}
			started = true
			continue
		}

		result := session.RecordTiming(stamp)
		if result.AtEnd {
			session.StopTiming()
			return scanner.Err()
		}
		if !session.GoToNextWord() {
			return scanner.Err()
		}
	}

	session.StopTiming()
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read tap log: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <project.json>",
		Short: "Export a timed project as .cur, .lyr, or JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportCur, "cur", "", "write a cursor timing file")
	cmd.Flags().StringVar(&exportLyr, "lyr", "", "write a legacy lyric text file")
	cmd.Flags().StringVar(&exportJSON, "json", "", "write timed lyrics as JSON")
	cmd.Flags().StringVar(&exportMode, "mode", "", "interpolation mode: tick or clock")
	cmd.Flags().IntVar(&exportTicksPerBeat, "ticks-per-beat", 0, "tick resolution for cursor export")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	project, err := readProjectFile(args[0])
	if err != nil {
		return err
	}
	if exportCur == "" && exportLyr == "" && exportJSON == "" {
		return fmt.Errorf("nothing to export: pass --cur, --lyr, or --json")
	}

	cfg, err := LoadConfig(DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	mode := exportMode
	if mode == "" {
		mode = defaultMode
		if cfg.Export.Mode != nil {
			mode = *cfg.Export.Mode
		}
	}
	ticksPerBeat := exportTicksPerBeat
	if !cmd.Flags().Changed("ticks-per-beat") {
		ticksPerBeat = defaultTicksPerBeat
		if cfg.Export.TicksPerBeat != nil {
			ticksPerBeat = *cfg.Export.TicksPerBeat
		}
	}
	if mode != "tick" && mode != "clock" {
		return fmt.Errorf("invalid mode %q: expected tick or clock", mode)
	}

	if exportCur != "" {
		if err := exportCurFile(project, mode, ticksPerBeat); err != nil {
			return err
		}
	}
	if exportLyr != "" {
		lyr := &LyrFile{Title: project.Title, Artist: project.Artist, Key: project.Key, Lines: LineTexts(project.Words)}
		if err := writeFileWith(exportLyr, func(f *os.File) error { return WriteLyrFile(f, lyr) }); err != nil {
			return err
		}
	}
	if exportJSON != "" {
		if err := writeFileWith(exportJSON, func(f *os.File) error {
			return ExportTimedJSON(f, project.Title, project.Artist, project.Words)
		}); err != nil {
			return err
		}
	}
	return nil
}

func exportCurFile(project *Project, mode string, ticksPerBeat int) error {
	// Cursor values live on the tick grid; clock-domain timestamps have no
	// meaningful quantization there.
	if mode != "tick" {
		return fmt.Errorf("cursor export requires tick mode, not %q", mode)
	}

	timed := make([]Word, 0, len(project.Words))
	for _, w := range project.Words {
		if w.Timed() {
			timed = append(timed, w)
		}
	}
	if len(timed) == 0 {
		return fmt.Errorf("no timed words: cursor export would be empty")
	}
	if ticksPerBeat <= 0 {
		return fmt.Errorf("cursor export requires a positive ticks-per-beat")
	}

	stamps := InterpolateTickEase(timed, uint32(ticksPerBeat))
	if len(stamps) == 0 {
		return fmt.Errorf("character interpolation produced no timestamps")
	}

	cursors := TicksToCursors(stamps, uint32(ticksPerBeat))
	if cursors == nil {
		return fmt.Errorf("cursor conversion failed")
	}
	return writeFileWith(exportCur, func(f *os.File) error { return WriteCurFile(f, cursors) })
}

func newEmbedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed <in.mid> <project.json>",
		Short: "Embed project lyrics into a tagged MIDI file",
		Long: `Embed the project's song info and timed lyrics into a MIDI file as a
compressed lyric payload. Chord markers already present in the source
file are kept; any previous lyric payload is replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: runEmbedCmd,
	}
	cmd.Flags().StringVarP(&embedOut, "out", "o", "", "output MIDI file (required)")
	if err := cmd.MarkFlagRequired("out"); err != nil {
		panic(err)
	}
	return cmd
}

func runEmbedCmd(_ *cobra.Command, args []string) error {
	song, err := ReadMidiFile(args[0])
	if err != nil {
		return err
	}
	project, err := readProjectFile(args[1])
	if err != nil {
		return err
	}

	info := SongInfo{
		"TITLE":  project.Title,
		"ARTIST": project.Artist,
		"KEY":    project.Key,
	}
	_, chords := ExtractKLyr(song)

	tagged, err := BuildTaggedMidi(song, info, GroupLines(project.Words), chords)
	if err != nil {
		return err
	}
	return WriteMidiFile(embedOut, tagged)
}

func readProjectFile(path string) (*Project, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open project: %w", err)
	}
	defer file.Close()
	return ReadProject(file)
}

func writeProjectFile(path string, project *Project) error {
	return writeFileWith(path, func(f *os.File) error { return WriteProject(f, project) })
}

// writeFileWith creates path and runs the writer against it, keeping the
// open/close/error plumbing in one place.
func writeFileWith(path string, write func(*os.File) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
