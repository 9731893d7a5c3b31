package cli

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"github.com/skillbreak/kiticon/pkg/colorize"
	"github.com/skillbreak/kiticon/pkg/config"
	"github.com/skillbreak/kiticon/pkg/geom"
	kio "github.com/skillbreak/kiticon/pkg/io"
	"github.com/skillbreak/kiticon/pkg/preview"
	"github.com/skillbreak/kiticon/pkg/renderer"
	"github.com/skillbreak/kiticon/pkg/scene"
)

// Edit steps.
const (
	hueStep       = 10.0            // degrees
	lightnessStep = 0.05            // HSL lightness
	rotationStep  = math.Pi / 12    // 15 degrees
	paddingStep   = float32(0.02)   // fraction of the layer footprint
	exportTimeout = 2 * time.Minute // full-quality export
)

// tweakOpts holds the tweak command flags.
type tweakOpts struct {
	scene   sceneFlags
	output  string
	preview string
}

// tweakCommand creates the tweak command, an interactive editor.
func (c *CLI) tweakCommand() *cobra.Command {
	opts := tweakOpts{}

	cmd := &cobra.Command{
		Use:   "tweak [image|model]",
		Short: "Edit an icon interactively with live previews",
		Long: `Edit an icon interactively.

Every change is written to a quick preview PNG once edits settle; open it in
an image viewer that reloads on change. Press s to export the icon at full
quality.

Keys:
  tab / shift+tab  select the color to edit
  ←/→ or h/l       shift the hue
  ↑/↓ or k/j       lighten or darken
  f                cycle colorization: none, color, gradient
  x/y/z X/Y/Z      rotate the model about an axis
  + / -            grow or shrink the model padding
  b                toggle the background
  r                reset the rotation
  s                export at full quality
  q                quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runTweak(cmd, input, &opts)
		},
	}

	opts.scene.register(cmd)
	c.completeSymbolFlag(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", kio.DefaultExportName, "export file")
	cmd.Flags().StringVar(&opts.preview, "preview", "", "preview file (default: <output>.preview.png)")

	return cmd
}

// runTweak composes the icon and runs the editor until the user quits.
func (c *CLI) runTweak(cmd *cobra.Command, input string, opts *tweakOpts) error {
	ctx := cmd.Context()

	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	catalog, err := opts.scene.catalog(cfg)
	if err != nil {
		return err
	}
	popts, err := opts.scene.options(cmd, cfg, catalog)
	if err != nil {
		return err
	}
	popts.Input = input

	runner, err := c.newRunner(true, nil)
	if err != nil {
		return err
	}
	rd, warnings, err := runner.Compose(ctx, popts)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		printWarning("%v", w)
	}

	previewPath := opts.preview
	if previewPath == "" {
		previewPath = strings.TrimSuffix(opts.output, filepath.Ext(opts.output)) + ".preview.png"
	}

	// The terminal belongs to the editor; scheduler logs would garble it.
	quiet := log.New(io.Discard)

	var prog *tea.Program
	sched := preview.New(func(res preview.Result) {
		if res.Err == nil {
			res.Err = kio.ExportPNG(previewPath, res.Image)
		}
		prog.Send(previewMsg(res))
	}, preview.Options{Size: cfg.Render.PreviewSize, Logger: quiet})

	m := newTweakModel(ctx, rd, sched)
	m.output = opts.output
	m.previewPath = previewPath
	m.exportSize = popts.Size

	prog = tea.NewProgram(m, tea.WithContext(ctx))
	sched.Submit(rd.Frame())
	final, err := prog.Run()
	sched.Close()
	if err != nil {
		return err
	}

	fm := final.(tweakModel)
	if fm.exported != "" {
		printSuccess("Exported icon")
		printFile(fm.exported)
	}
	printKeyValue("Preview", previewPath)
	printKeyValue("Changes", StyleNumber.Render(fmt.Sprint(rd.Changes())))
	return nil
}

// =============================================================================
// tweakModel - Interactive editor
// =============================================================================

// colorTarget is a color the editor can change.
type colorTarget int

const (
	targetTop colorTarget = iota
	targetMiddle
	targetBottom
	targetFill
	targetGradientStart
	targetGradientEnd
	targetBackground
	targetCount
)

var targetNames = [targetCount]string{
	"Top layer", "Middle layer", "Bottom layer",
	"Fill", "Gradient start", "Gradient end", "Background",
}

// submitter receives frames to preview.
type submitter interface {
	Submit(*renderer.Frame)
}

// previewMsg carries a finished preview render.
type previewMsg preview.Result

// exportMsg reports a finished full-quality export.
type exportMsg struct {
	path     string
	duration time.Duration
	err      error
}

// tweakModel is the bubbletea model of the editor. All renderer mutations
// happen in Update; renders work on frames.
type tweakModel struct {
	ctx   context.Context
	rd    *renderer.Renderer
	sched submitter

	target      colorTarget
	output      string
	previewPath string
	exportSize  int

	lastPreview preview.Result
	exporting   bool
	exported    string
	status      string
	statusErr   bool
}

func newTweakModel(ctx context.Context, rd *renderer.Renderer, sched submitter) tweakModel {
	return tweakModel{ctx: ctx, rd: rd, sched: sched, exportSize: config.DefaultSize}
}

func (m tweakModel) Init() tea.Cmd {
	return nil
}

func (m tweakModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case previewMsg:
		if msg.Err != nil {
			m.setStatus(true, "preview failed: %v", msg.Err)
		} else {
			m.lastPreview = preview.Result(msg)
		}
		return m, nil
	case exportMsg:
		m.exporting = false
		if msg.err != nil {
			m.setStatus(true, "export failed: %v", msg.err)
		} else {
			m.exported = msg.path
			m.setStatus(false, "exported %s in %s", msg.path, msg.duration.Round(time.Millisecond))
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m tweakModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.rd.Changes()
	var err error

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.target = (m.target + 1) % targetCount
	case "shift+tab":
		m.target = (m.target + targetCount - 1) % targetCount
	case "left", "h":
		err = m.editColor(func(c color.NRGBA) color.NRGBA { return shiftHue(c, -hueStep) })
	case "right", "l":
		err = m.editColor(func(c color.NRGBA) color.NRGBA { return shiftHue(c, hueStep) })
	case "up", "k":
		err = m.editColor(func(c color.NRGBA) color.NRGBA { return shiftLightness(c, lightnessStep) })
	case "down", "j":
		err = m.editColor(func(c color.NRGBA) color.NRGBA { return shiftLightness(c, -lightnessStep) })
	case "f":
		spec := m.rd.Colorization()
		spec.Kind = (spec.Kind + 1) % (colorize.KindGradient + 1)
		err = m.rd.SetColorization(spec)
	case "x", "y", "z", "X", "Y", "Z":
		m.rd.SetRotation(rotate(m.rd.Rotation(), msg.String()))
	case "r":
		m.rd.SetRotation(geom.Vec3{})
	case "+", "=":
		err = m.rd.SetPadding(m.rd.Padding() + paddingStep)
	case "-":
		err = m.rd.SetPadding(max(m.rd.Padding()-paddingStep, 0))
	case "b":
		m.rd.SetRenderBackground(!m.rd.RenderBackground())
	case "s":
		if m.exporting {
			return m, nil
		}
		m.exporting = true
		m.setStatus(false, "exporting %s...", m.output)
		return m, m.export()
	}

	if err != nil {
		m.setStatus(true, "%v", err)
	} else if m.rd.Changes() != before {
		m.status = ""
	}
	if m.rd.Changes() != before {
		m.sched.Submit(m.rd.Frame())
	}
	return m, nil
}

// editColor applies f to the selected color.
func (m *tweakModel) editColor(f func(color.NRGBA) color.NRGBA) error {
	switch t := m.target; t {
	case targetTop, targetMiddle, targetBottom:
		i := scene.LayerTop + int(t-targetTop)
		return m.rd.SetLayerColor(i, f(m.rd.Colors()[i]))
	case targetFill, targetGradientStart, targetGradientEnd:
		spec := m.rd.Colorization()
		switch t {
		case targetFill:
			spec.Color = f(spec.Color)
		case targetGradientStart:
			spec.Gradient.Start = f(spec.Gradient.Start)
		default:
			spec.Gradient.End = f(spec.Gradient.End)
		}
		return m.rd.SetColorization(spec)
	case targetBackground:
		m.rd.SetBackgroundColor(f(m.rd.BackgroundColor()))
	}
	return nil
}

// colorOf returns the current value of target t.
func (m tweakModel) colorOf(t colorTarget) color.NRGBA {
	spec := m.rd.Colorization()
	switch t {
	case targetTop, targetMiddle, targetBottom:
		return m.rd.Colors()[scene.LayerTop+int(t-targetTop)]
	case targetFill:
		return spec.Color
	case targetGradientStart:
		return spec.Gradient.Start
	case targetGradientEnd:
		return spec.Gradient.End
	}
	return m.rd.BackgroundColor()
}

// export renders the current frame at full quality off the update loop.
func (m tweakModel) export() tea.Cmd {
	frame := m.rd.Frame()
	path, size, parent := m.output, m.exportSize, m.ctx
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(parent, exportTimeout)
		defer cancel()
		img, err := frame.Render(ctx, size, renderer.QualityFull)
		if err == nil {
			err = kio.ExportPNG(path, img)
		}
		return exportMsg{path: path, duration: time.Since(start), err: err}
	}
}

func (m *tweakModel) setStatus(isErr bool, format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = isErr
}

func (m tweakModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Kiticon"))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %s · %d changes", m.rd.Content(), m.rd.Changes())))
	b.WriteString("\n\n")

	for t := colorTarget(0); t < targetCount; t++ {
		c := m.colorOf(t)
		hex := config.FormatColor(c)
		swatch := lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("    ")
		cursor := "  "
		style := listNormalStyle
		if t == m.target {
			cursor = "▸ "
			style = listSelectedStyle
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s\n", cursor, swatch, style.Render(fmt.Sprintf("%-15s", targetNames[t])), listDimStyle.Render(hex)))
	}
	b.WriteString("\n")

	kv := func(k, v string) {
		b.WriteString("  " + listDimStyle.Render(fmt.Sprintf("%-11s", k)) + " " + StyleValue.Render(v) + "\n")
	}
	kv("Fill", m.rd.Colorization().Kind.String())
	if m.rd.Content() == renderer.ContentModel {
		kv("Rotation", config.FormatDegrees(m.rd.Rotation())+"°")
		kv("Padding", fmt.Sprintf("%.2f", m.rd.Padding()))
	}
	kv("Background", onOff(m.rd.RenderBackground()))
	if p := m.lastPreview; p.Image != nil {
		kv("Preview", fmt.Sprintf("gen %d · %s → %s", p.Generation, p.Duration.Round(time.Millisecond), m.previewPath))
	}
	b.WriteString("\n")

	if m.status != "" {
		if m.statusErr {
			b.WriteString(StyleWarning.Render("  " + m.status))
		} else {
			b.WriteString(StyleSuccess.Render("  " + m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render("tab select  ←/→ hue  ↑/↓ light  f fill  x/y/z rotate  +/- padding  b background  s export  q quit"))
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// rotate turns v by rotationStep about the axis named by key. Upper case
// turns the other way.
func rotate(v geom.Vec3, key string) geom.Vec3 {
	step := float32(rotationStep)
	if strings.ToUpper(key) == key {
		step = -step
	}
	wrap := func(a float32) float32 {
		return float32(math.Remainder(float64(a+step), 2*math.Pi))
	}
	switch strings.ToLower(key) {
	case "x":
		v.X = wrap(v.X)
	case "y":
		v.Y = wrap(v.Y)
	case "z":
		v.Z = wrap(v.Z)
	}
	return v
}

// shiftHue rotates the HSL hue of c by deg degrees.
func shiftHue(c color.NRGBA, deg float64) color.NRGBA {
	h, s, l := toColorful(c).Hsl()
	return fromColorful(colorful.Hsl(math.Mod(h+deg+360, 360), s, l))
}

// shiftLightness adds d to the HSL lightness of c.
func shiftLightness(c color.NRGBA, d float64) color.NRGBA {
	h, s, l := toColorful(c).Hsl()
	return fromColorful(colorful.Hsl(h, s, math.Max(0, math.Min(1, l+d))))
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{r, g, b, 0xff}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
