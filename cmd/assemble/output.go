package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/internal/usecase/video"
)

const transcriptWidth = 48

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(title string, header table.Row, rightAligned ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.SetTitle(title)
	tw.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(rightAligned))
	for _, n := range rightAligned {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

// sentencesTable lists each sentence with the term its footage was found for
func sentencesTable(plan *video.Plan) string {
	tw := newTable("Sentences", table.Row{"#", "Start", "Duration", "Transcript", "Search term", "Top terms", "Clips"}, 1, 2, 3, 7)
	for i, s := range plan.Transcription.Sentences {
		term := "-"
		if s.Analysis.FetchedVideoFor != nil {
			term = s.Analysis.FetchedVideoFor.Text
		}
		tw.AppendRow(table.Row{
			i + 1,
			seconds(s.Start()),
			seconds(s.Duration),
			text.Trim(strings.TrimSpace(s.Transcript), transcriptWidth),
			term,
			topTerms(s.Analysis.Rank, 3),
			len(s.Videos),
		})
	}
	stats := plan.Transcription.Statistics
	tw.AppendFooter(table.Row{"", "", seconds(stats.AudioDurationSeconds), fmt.Sprintf("%d sentences", stats.SentencesCount)})
	return tw.Render()
}

// timelineTable lists the clips in playback order
func timelineTable(tl entities.Timeline) string {
	tw := newTable("Timeline", table.Row{"#", "Offset", "Length", "Clip"}, 1, 2, 3)
	for i, a := range tl.Assets {
		tw.AppendRow(table.Row{i + 1, seconds(a.StartOffsetSeconds), seconds(a.Clip.DurationSeconds), a.Clip.SourceURL})
	}
	footer := table.Row{"", "", seconds(tl.TotalDuration), ""}
	if tl.Soundtrack != nil {
		footer[3] = "soundtrack: " + tl.Soundtrack.Src
	}
	tw.AppendFooter(footer)
	return tw.Render()
}

func topTerms(rank []entities.RankedTerm, n int) string {
	if len(rank) < n {
		n = len(rank)
	}
	parts := make([]string, 0, n)
	for _, t := range rank[:n] {
		parts = append(parts, fmt.Sprintf("%s (%.2f)", t.Text, t.Relevance))
	}
	return strings.Join(parts, ", ")
}

func seconds(v float64) string {
	return fmt.Sprintf("%.2fs", v)
}
