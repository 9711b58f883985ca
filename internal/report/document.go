// Package report 导出 PDF：先排版成 Document（纯函数，可测试），再用 fpdf 绘制。
package report

import (
	"strings"
	"time"
)

type Style int

const (
	StyleTitle Style = iota
	StyleHeading
	StyleLabel
	StyleBody
	StyleBullet
	StyleTableHeader
	StyleTableRow
)

// Line 页面上的一行；Cells 非空时按表格列绘制
type Line struct {
	Y     float64
	Style Style
	Text  string
	Cells []string
}

type Page struct {
	Lines []Line
}

type Document struct {
	Title     string
	CreatedAt time.Time
	Layout    Layout
	Pages     []Page
}

// Layout 单位均为毫米
type Layout struct {
	PageHeight  float64
	LineHeight  float64
	TopMargin   float64
	BottomLimit float64
	// WrapWidth 正文按字符数折行
	WrapWidth int
}

func DefaultLayout() Layout {
	return Layout{
		PageHeight:  297,
		LineHeight:  7,
		TopMargin:   20,
		BottomLimit: 277,
		WrapWidth:   90,
	}
}

// Text 所有行按顺序拼接，便于检查内容
func (d *Document) Text() string {
	var sb strings.Builder
	for _, p := range d.Pages {
		for _, l := range p.Lines {
			if len(l.Cells) > 0 {
				sb.WriteString(strings.Join(l.Cells, " | "))
			} else {
				sb.WriteString(l.Text)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Headings 返回所有章节标题
func (d *Document) Headings() []string {
	var out []string
	for _, p := range d.Pages {
		for _, l := range p.Lines {
			if l.Style == StyleHeading {
				out = append(out, l.Text)
			}
		}
	}
	return out
}

// builder 固定行距排版，y 超过下边界前换页
type builder struct {
	layout Layout
	doc    *Document
	y      float64
}

func newBuilder(title string, createdAt time.Time, layout Layout) *builder {
	if layout.WrapWidth <= 0 {
		layout.WrapWidth = DefaultLayout().WrapWidth
	}
	b := &builder{
		layout: layout,
		doc:    &Document{Title: title, CreatedAt: createdAt, Layout: layout},
	}
	b.newPage()
	return b
}

func (b *builder) newPage() {
	b.doc.Pages = append(b.doc.Pages, Page{})
	b.y = b.layout.TopMargin
}

func (b *builder) ensureRoom(lines int) {
	if b.y+float64(lines)*b.layout.LineHeight > b.layout.BottomLimit {
		b.newPage()
	}
}

func (b *builder) add(style Style, text string) {
	b.ensureRoom(1)
	page := &b.doc.Pages[len(b.doc.Pages)-1]
	page.Lines = append(page.Lines, Line{Y: b.y, Style: style, Text: text})
	b.y += b.layout.LineHeight
}

func (b *builder) row(style Style, cells ...string) {
	b.ensureRoom(1)
	page := &b.doc.Pages[len(b.doc.Pages)-1]
	page.Lines = append(page.Lines, Line{Y: b.y, Style: style, Cells: cells})
	b.y += b.layout.LineHeight
}

// heading 标题与下一行不拆到两页
func (b *builder) heading(text string) {
	b.ensureRoom(2)
	b.add(StyleHeading, text)
}

func (b *builder) field(label, value string) {
	if value == "" {
		return
	}
	b.paragraph(StyleBody, label+": "+value)
}

func (b *builder) paragraph(style Style, text string) {
	for _, l := range wrapText(text, b.layout.WrapWidth) {
		b.add(style, l)
	}
}

func (b *builder) bullets(label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.add(StyleLabel, label+":")
	for _, it := range items {
		b.paragraph(StyleBullet, "- "+it)
	}
}

func (b *builder) gap() {
	b.y += b.layout.LineHeight / 2
}

func (b *builder) document() *Document {
	return b.doc
}

func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	cur := words[0]
	for _, w := range words[1:] {
		if len([]rune(cur))+1+len([]rune(w)) > width {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur += " " + w
	}
	return append(lines, cur)
}

// humanize daily -> Daily，sleep_problems -> Sleep problems
func humanize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
