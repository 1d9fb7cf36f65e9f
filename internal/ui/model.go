package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/datasweeper/internal/config"
	"github.com/nconklindev/datasweeper/internal/converter"
	"github.com/nconklindev/datasweeper/internal/pipeline"
	"github.com/nconklindev/datasweeper/internal/transform"
	"github.com/nconklindev/datasweeper/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateFilePicker state = iota
	stateOptions
	stateChart
	stateProcessing
	stateComplete
	stateError
)

type Model struct {
	state        state
	filepicker   filepicker.Model
	selectedFile string
	data         []byte
	table        *types.Table
	summary      *pipeline.Summary
	chart        []transform.Series
	selectedCols []bool
	dedupe       bool
	fill         bool
	target       converter.Format
	cursor       int
	previewRows  int
	chartColumns int
	result       *types.ConversionResult
	rowsIn       int
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan conversionResultMsg
}

type conversionResultMsg struct {
	result *types.ConversionResult
	rowsIn int
	err    error
}

type fileLoadedMsg struct {
	data    []byte
	table   *types.Table
	summary *pipeline.Summary
	err     error
}

type conversionCompleteMsg struct {
	result *types.ConversionResult
	rowsIn int
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(preview config.PreviewConfig) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv", ".xlsx"}
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#5EEAD4"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#5EEAD4"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	prog := progress.New(progress.WithGradient("#2DD4BF", "#5EEAD4"))

	return Model{
		state:        stateFilePicker,
		filepicker:   fp,
		previewRows:  preview.Rows,
		chartColumns: preview.ChartColumns,
		progress:     prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for the title, subtitle and help text
		height := msg.Height - 14
		if height < 5 {
			height = 5
		}

		m.filepicker.SetHeight(height)
		m.progress.Width = max(min(msg.Width-12, 60), 10)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			}

		case stateOptions:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.selectedCols)-1 {
					m.cursor++
				}
			case " ":
				m.selectedCols[m.cursor] = !m.selectedCols[m.cursor]
			case "a":
				all := m.allSelected()
				for i := range m.selectedCols {
					m.selectedCols[i] = !all
				}
			case "d":
				m.dedupe = !m.dedupe
			case "f":
				m.fill = !m.fill
			case "t":
				m.target = otherFormat(m.target)
			case "c":
				m.chart = m.chartSeries()
				m.state = stateChart
			case "enter":
				if m.anySelected() {
					m.state = stateProcessing
					return m.convertFile()
				}
			}
			return m, nil

		case stateChart:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "c", "esc", "backspace":
				m.state = stateOptions
			}
			return m, nil

		case stateComplete, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case fileLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.data = msg.data
		m.table = msg.table
		m.summary = msg.summary
		m.target = pipeline.DefaultTarget(m.selectedFile)
		m.cursor = 0

		m.selectedCols = make([]bool, len(msg.summary.Columns))
		for i := range m.selectedCols {
			m.selectedCols[i] = true
		}

		m.state = stateOptions
		return m, nil

	case conversionCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.rowsIn = msg.rowsIn
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			return m, m.loadFile(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) loadFile(path string) tea.Cmd {
	previewRows, chartColumns := m.previewRows, m.chartColumns
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return fileLoadedMsg{err: err}
		}
		name := filepath.Base(path)
		tbl, err := converter.Decode(data, name)
		if err != nil {
			return fileLoadedMsg{err: &pipeline.StageError{Stage: pipeline.StageDecode, File: name, Err: err}}
		}
		summary := pipeline.Summarize(tbl, name, len(data), previewRows, chartColumns)
		return fileLoadedMsg{data: data, table: tbl, summary: summary}
	}
}

// options turns the current toggles into pipeline options. All columns
// selected means no projection.
func (m Model) options() pipeline.Options {
	opts := pipeline.Options{
		RemoveDuplicates: m.dedupe,
		FillMissing:      m.fill,
		Target:           m.target,
	}
	if !m.allSelected() {
		opts.Columns = []string{}
		for i, col := range m.summary.Columns {
			if m.selectedCols[i] {
				opts.Columns = append(opts.Columns, col.Name)
			}
		}
	}
	return opts
}

// chartSeries charts the table as it would be converted with the current
// toggles and column selection.
func (m Model) chartSeries() []transform.Series {
	opts := m.options()
	tbl := pipeline.Clean(m.table, opts)
	if opts.Columns != nil {
		projected, err := transform.Project(tbl, opts.Columns)
		if err != nil {
			return nil
		}
		tbl = projected
	}
	return transform.ChartSeries(tbl, m.chartColumns)
}

func (m Model) convertFile() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, len(pipeline.Stages)+1)
	m.resultChan = make(chan conversionResultMsg, 1)

	// Capture everything the goroutine needs
	progressChan := m.progressChan
	resultChan := m.resultChan
	selectedFile := m.selectedFile
	data := m.data
	opts := m.options()

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				report := func(s pipeline.Stage) {
					progressChan <- stageProgress(s)
				}

				msg := conversionResultMsg{}
				res, err := pipeline.Run(context.Background(), data, filepath.Base(selectedFile), opts, report)
				if err == nil {
					out := res.Output
					out.InputFile = selectedFile
					out.OutputFile = pipeline.OutputPath(selectedFile, "", out.OutputFile)
					err = os.WriteFile(out.OutputFile, out.Data, 0o644)
					if err != nil {
						err = fmt.Errorf("write output: %w", err)
					}
					msg.result, msg.rowsIn = out, res.RowsIn
					progressChan <- 1
				}
				msg.err = err

				resultChan <- msg

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

// stageProgress maps the stage about to run to the share of work already done.
// Writing the output file is the final step after the last stage.
func stageProgress(s pipeline.Stage) float64 {
	for i, st := range pipeline.Stages {
		if st == s {
			return float64(i) / float64(len(pipeline.Stages))
		}
	}
	return 0
}

func waitForProgress(progressChan chan float64, resultChan chan conversionResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return conversionCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func otherFormat(f converter.Format) converter.Format {
	if f == converter.FormatCSV {
		return converter.FormatXLSX
	}
	return converter.FormatCSV
}

func (m Model) allSelected() bool {
	for _, sel := range m.selectedCols {
		if !sel {
			return false
		}
	}
	return true
}

func (m Model) anySelected() bool {
	for _, sel := range m.selectedCols {
		if sel {
			return true
		}
	}
	return false
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateOptions:
		return m.viewOptions()
	case stateChart:
		return m.viewChart()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	title := TitleStyle.Render("🧹 Data Sweeper - Clean and Convert Tables")

	authorSpan := SubtitleStyle.Render("by Nick Conklin • ")
	githubSpan := LinkStyle.Render("https://github.com/nconklindev/datasweeper")
	byLine := lipgloss.JoinHorizontal(lipgloss.Top, authorSpan, githubSpan)

	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, title, byLine))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select a CSV or XLSX file to clean"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewOptions() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🧹 Clean and Convert"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s  •  %.1f KB  •  %d rows",
		m.summary.Name, m.summary.SizeKB, m.summary.Rows)))
	s.WriteString("\n\n")

	s.WriteString(m.viewPreview())
	s.WriteString("\n\n")

	for i, col := range m.summary.Columns {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}

		checked := " "
		if m.selectedCols[i] {
			checked = "✓"
		}

		line := fmt.Sprintf("%s [%s] %s", cursor, checked, col.Name)
		detail := fmt.Sprintf(" (%s", col.Type)
		if col.Missing > 0 {
			detail += fmt.Sprintf(", %d missing", col.Missing)
		}
		detail += ")"

		switch {
		case m.cursor == i:
			line = SelectedStyle.Render(line)
		case m.selectedCols[i]:
			line = CheckedStyle.Render(line)
		default:
			line = UnselectedStyle.Render(line)
		}

		s.WriteString(line + MutedStyle.Render(detail))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Remove duplicate rows: %s\n", checkbox(m.dedupe)))
	s.WriteString(fmt.Sprintf("Fill missing numbers:  %s\n", checkbox(m.fill)))
	s.WriteString(fmt.Sprintf("Convert to:            %s\n", SelectedStyle.Render(m.target.Label())))

	if !m.anySelected() {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render("Select at least one column"))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("↑/↓: navigate • space: toggle column • a: all/none • d: duplicates • f: fill • t: target • c: chart • enter: convert • q: quit"))

	return BoxStyle.Render(s.String())
}

// viewPreview renders the first rows as an aligned table.
func (m Model) viewPreview() string {
	if len(m.summary.Preview) == 0 {
		return MutedStyle.Render("(no rows)")
	}

	cols := make([]string, len(m.summary.Columns))
	for j, col := range m.summary.Columns {
		cells := make([]string, 0, len(m.summary.Preview)+1)
		cells = append(cells, PreviewHeaderStyle.Render(col.Name))
		for _, row := range m.summary.Preview {
			cells = append(cells, PreviewCellStyle.Render(previewCell(row[j])))
		}
		cols[j] = lipgloss.JoinVertical(lipgloss.Left, cells...)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func previewCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return types.FormatNumber(v)
	case string:
		return v
	}
	return fmt.Sprint(v)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewChart() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("📊 " + m.summary.Name))
	s.WriteString("\n\n")
	s.WriteString(renderChart(m.chart, m.width))
	s.WriteString(HelpStyle.Render("c/esc: back • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🧹 Processing..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Converting to %s...", m.target.Label()))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Conversion Complete!"))
	s.WriteString("\n\n")

	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	s.WriteString(fmt.Sprintf("Input:  %s\n", truncatePath(m.result.InputFile, maxPathLen)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s\n", truncatePath(m.result.OutputFile, maxPathLen))))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Rows: %d (from %d)\n", m.result.Rows, m.rowsIn))
	s.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(m.result.Columns, ", ")))
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("Press enter to exit"))

	return BoxStyle.Render(s.String())
}

func truncatePath(p string, maxLen int) string {
	if len(p) <= maxLen {
		return p
	}
	return "..." + p[len(p)-maxLen+3:]
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press enter to exit"))

	return BoxStyle.Render(s.String())
}
