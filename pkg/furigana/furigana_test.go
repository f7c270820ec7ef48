package furigana

import (
	"reflect"
	"strings"
	"testing"

	"github.com/gardar/furiocr/pkg/ocr"
)

// word builds a word with an axis-aligned box
func word(text string, x1, y1, x2, y2 float64) ocr.Word {
	return ocr.Word{Text: text, Polygon: ocr.NewBoundingBox(x1, y1, x2, y2).Polygon(), Confidence: 0.99}
}

func line(words ...ocr.Word) ocr.Line {
	var texts []string
	for _, w := range words {
		texts = append(texts, w.Text)
	}
	return ocr.Line{Text: strings.Join(texts, ""), Words: words}
}

func page(lines ...ocr.Line) ocr.Page {
	for i := range lines {
		lines[i].Index = i
		for j := range lines[i].Words {
			lines[i].Words[j].ID = ocr.WordID{Line: i, Word: j}
		}
	}
	return ocr.Page{Number: 1, Width: 200, Height: 300, Unit: ocr.UnitPixel, Lines: lines}
}

// densha is a single line reading 電(テン)車(シャ) with the readings printed
// just above their kanji
func densha() ocr.Page {
	return page(line(
		word("電", 0, 10, 10, 20),
		word("テン", 1, 5, 9, 9),
		word("車", 10, 10, 20, 20),
		word("シャ", 11, 5, 19, 9),
	))
}

func TestClassify_FuriganaOverKanji(t *testing.T) {
	cls := Classify(densha(), DefaultOptions())

	want := map[ocr.WordID]Tag{
		{Line: 0, Word: 0}: Body,
		{Line: 0, Word: 1}: Furigana,
		{Line: 0, Word: 2}: Body,
		{Line: 0, Word: 3}: Furigana,
	}
	for id, tag := range want {
		if got := cls.Tag(id); got != tag {
			t.Errorf("Word %+v: expected %s, got %s", id, tag, got)
		}
	}
	if cls.Count(Furigana) != 2 {
		t.Errorf("Expected 2 furigana words, got %d", cls.Count(Furigana))
	}
}

func TestClassify_AllBody(t *testing.T) {
	tests := []struct {
		name string
		page ocr.Page
	}{
		{
			name: "uniform heights",
			page: page(line(
				word("今", 0, 0, 10, 10),
				word("日", 10, 0, 20, 10.2),
				word("は", 20, 0, 30, 9.8),
				word("晴", 30, 0, 40, 10),
			)),
		},
		{
			name: "caption of small words only",
			page: page(line(
				word("図", 0, 0, 4, 4),
				word("1", 4, 0, 8, 4),
				word("説明", 8, 0, 16, 4),
			)),
		},
		{
			name: "small line far below body text",
			page: page(
				line(word("本文", 0, 0, 20, 10)),
				line(word("注", 0, 30, 4, 34)),
			),
		},
		{
			name: "small word beside body text without overlap",
			page: page(line(
				word("本", 0, 0, 10, 10),
				word("注", 12, 0, 16, 4),
			)),
		},
		{
			name: "near threshold stays body",
			page: page(line(
				word("電", 0, 10, 10, 20),
				word("テン", 1, 5.2, 9, 9.8),
			)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := Classify(tt.page, DefaultOptions())
			if n := cls.Count(Furigana); n != 0 {
				t.Errorf("Expected no furigana, got %d: %v", n, cls)
			}
			if len(cls) != tt.page.WordCount() {
				t.Errorf("Expected %d tagged words, got %d", tt.page.WordCount(), len(cls))
			}
		})
	}
}

func TestClassify_MalformedGeometryIsBody(t *testing.T) {
	p := densha()
	p.Lines[0].Words[1].Polygon = ocr.Polygon{1, 5}

	cls := Classify(p, DefaultOptions())
	if got := cls.Tag(ocr.WordID{Line: 0, Word: 1}); got != Body {
		t.Errorf("Expected malformed word to be body, got %s", got)
	}
	if got := cls.Tag(ocr.WordID{Line: 0, Word: 3}); got != Furigana {
		t.Errorf("Expected well-formed furigana to still be detected, got %s", got)
	}
}

func TestClassify_AdjacentLine(t *testing.T) {
	p := page(
		line(word("でんしゃ", 0, 0, 20, 4)),
		line(word("電", 0, 5, 10, 15), word("車", 10, 5, 20, 15)),
	)

	cls := Classify(p, DefaultOptions())
	if got := cls.Tag(ocr.WordID{Line: 0, Word: 0}); got != Furigana {
		t.Fatalf("Expected reading line to be furigana, got %s", got)
	}

	lines := Reassemble(p, cls, DefaultOptions())
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !lines[0].Empty || lines[0].Text != "" {
		t.Errorf("Expected empty placeholder, got %+v", lines[0])
	}
	if lines[0].Box.Width() != 0 || lines[0].Box.X1 != 0 || lines[0].Box.Y1 != 0 {
		t.Errorf("Expected zero-width placeholder at the line origin, got %+v", lines[0].Box)
	}
	if lines[1].Text != "電車" {
		t.Errorf("Expected 電車, got %q", lines[1].Text)
	}
}

func TestClassify_VerticalText(t *testing.T) {
	l := line(
		word("電", 0, 0, 10, 10),
		word("テン", 11, 1, 15, 9),
		word("車", 0, 10, 10, 20),
		word("線", 0, 20, 10, 30),
	)
	l.Polygon = ocr.NewBoundingBox(0, 0, 16, 40).Polygon()
	p := page(l)

	lines, cls := Process(p, DefaultOptions())
	if got := cls.Tag(ocr.WordID{Line: 0, Word: 1}); got != Furigana {
		t.Fatalf("Expected side reading to be furigana, got %s", got)
	}
	if !lines[0].Vertical {
		t.Error("Expected line to be vertical")
	}
	if lines[0].Text != "電車線" {
		t.Errorf("Expected 電車線, got %q", lines[0].Text)
	}
}

func TestClassify_ReadingLineOutOfOrder(t *testing.T) {
	p := page(
		line(word("電", 0, 10, 10, 20), word("車", 10, 10, 20, 20)),
		line(word("本", 0, 30, 10, 40), word("日", 10, 30, 20, 40)),
		line(word("でん", 1, 5, 9, 9), word("しゃ", 11, 5, 19, 9)),
	)

	lines, cls := Process(p, DefaultOptions())
	if n := cls.Count(Furigana); n != 2 {
		t.Fatalf("Expected 2 furigana words, got %d: %v", n, cls)
	}

	want := []string{"電車", "本日", ""}
	for i, l := range lines {
		if l.Text != want[i] {
			t.Errorf("Line %d: expected %q, got %q", i, want[i], l.Text)
		}
	}
	if !lines[2].Empty {
		t.Error("Expected the reading line to be empty")
	}
}

func TestClassify_ReadingBesideVerticalColumn(t *testing.T) {
	tests := []struct {
		name    string
		reading ocr.Word
	}{
		{"single kana", word("ひ", 11, 3, 15, 7)},
		{"several kana", word("かざん", 11, 1, 15, 19)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := page(
				line(word("火", 0, 0, 10, 10), word("山", 0, 10, 10, 20), word("灰", 0, 20, 10, 30)),
				line(tt.reading),
			)

			lines, cls := Process(p, DefaultOptions())
			if got := cls.Tag(ocr.WordID{Line: 1, Word: 0}); got != Furigana {
				t.Fatalf("Expected reading to be furigana, got %s", got)
			}
			if cls.Count(Furigana) != 1 {
				t.Errorf("Expected only the reading to be furigana, got %v", cls)
			}
			if lines[0].Text != "火山灰" || !lines[0].Vertical {
				t.Errorf("Expected vertical 火山灰, got %+v", lines[0])
			}
		})
	}
}

func TestReassemble_UsesClassifierAspect(t *testing.T) {
	// 10 wide, 18 tall: vertical at the default aspect, horizontal at 2
	p := page(line(word("電", 0, 0, 10, 9), word("車", 0, 9, 10, 18)))

	opts := DefaultOptions()
	if lines := Reassemble(p, Classify(p, opts), opts); !lines[0].Vertical {
		t.Error("Expected vertical line with default options")
	}

	opts.VerticalAspect = 2
	if lines := Reassemble(p, Classify(p, opts), opts); lines[0].Vertical {
		t.Error("Expected horizontal line with vertical aspect 2")
	}
}

func TestClassify_DoesNotMutatePage(t *testing.T) {
	p := densha()
	before := densha()

	Classify(p, DefaultOptions())
	Reassemble(p, Classify(p, DefaultOptions()), DefaultOptions())

	if !reflect.DeepEqual(p, before) {
		t.Error("Page was modified")
	}
}

func TestReassemble_Densha(t *testing.T) {
	lines, _ := Process(densha(), DefaultOptions())
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].Text != "電車" {
		t.Errorf("Expected 電車, got %q", lines[0].Text)
	}
	if len(lines[0].Words) != 2 {
		t.Errorf("Expected 2 kept words, got %d", len(lines[0].Words))
	}
	want := ocr.BBox{X1: 0, Y1: 10, X2: 20, Y2: 20}
	if lines[0].Box != want {
		t.Errorf("Expected box %+v, got %+v", want, lines[0].Box)
	}
}

func TestReassemble_LineCountAndIdempotence(t *testing.T) {
	p := page(
		line(word("でんしゃ", 0, 0, 20, 4)),
		line(word("電", 0, 5, 10, 15), word("車", 10, 5, 20, 15)),
		line(),
		line(word("駅", 0, 40, 10, 50)),
	)

	first, _ := Process(p, DefaultOptions())
	second, _ := Process(p, DefaultOptions())

	if len(first) != len(p.Lines) {
		t.Errorf("Expected %d lines, got %d", len(p.Lines), len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Processing the same page twice gave different results")
	}
	if !first[2].Empty {
		t.Error("Expected line without words to be empty")
	}
}

func TestReassemble_NoFuriganaRoundTrip(t *testing.T) {
	p := page(
		line(word("今日", 0, 0, 20, 10), word("は", 20, 0, 30, 10), word("晴れ", 30, 0, 50, 10)),
		line(word("です", 0, 15, 20, 25)),
	)

	lines, _ := Process(p, DefaultOptions())
	for i, l := range p.Lines {
		var concat strings.Builder
		for _, w := range l.Words {
			concat.WriteString(w.Text)
		}
		if lines[i].Text != concat.String() {
			t.Errorf("Line %d: expected %q, got %q", i, concat.String(), lines[i].Text)
		}
	}
}

func TestJoinWords(t *testing.T) {
	tests := []struct {
		name  string
		words []ocr.Word
		want  string
	}{
		{
			name:  "latin without spans",
			words: []ocr.Word{{Text: "Hello"}, {Text: "world"}},
			want:  "Hello world",
		},
		{
			name: "latin with spaced spans",
			words: []ocr.Word{
				{Text: "Hello", Span: ocr.Span{Offset: 0, Length: 5}},
				{Text: "world", Span: ocr.Span{Offset: 6, Length: 5}},
			},
			want: "Hello world",
		},
		{
			name: "latin with contiguous spans",
			words: []ocr.Word{
				{Text: "foo", Span: ocr.Span{Offset: 0, Length: 3}},
				{Text: "bar", Span: ocr.Span{Offset: 3, Length: 3}},
			},
			want: "foobar",
		},
		{
			name:  "mixed scripts",
			words: []ocr.Word{{Text: "第"}, {Text: "3"}, {Text: "章"}, {Text: "Go"}, {Text: "言語"}},
			want:  "第3章Go言語",
		},
		{
			name:  "fullwidth digits",
			words: []ocr.Word{{Text: "１２"}, {Text: "月"}},
			want:  "１２月",
		},
		{
			name:  "blank words are skipped",
			words: []ocr.Word{{Text: "a"}, {Text: "  "}, {Text: "b"}},
			want:  "a b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinWords(tt.words); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		values []float64
		p      float64
		want   float64
	}{
		{nil, 90, 0},
		{[]float64{5}, 90, 5},
		{[]float64{4, 10, 4, 10}, 90, 10},
		{[]float64{1, 2, 3, 4, 5}, 50, 3},
		{[]float64{0, 10}, 25, 2.5},
	}
	for _, tt := range tests {
		if got := percentile(tt.values, tt.p); got != tt.want {
			t.Errorf("percentile(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("Default options invalid: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"zero ratio", func(o *Options) { o.HeightRatio = 0 }},
		{"ratio above one", func(o *Options) { o.HeightRatio = 1.5 }},
		{"margin swallows ratio", func(o *Options) { o.TieMargin = o.HeightRatio }},
		{"zero overlap", func(o *Options) { o.OverlapRatio = 0 }},
		{"negative proximity", func(o *Options) { o.Proximity = -1 }},
		{"percentile above 100", func(o *Options) { o.BenchmarkPercentile = 101 }},
		{"aspect below one", func(o *Options) { o.VerticalAspect = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.modify(&o)
			if err := o.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestProcessResult(t *testing.T) {
	result := &ocr.Result{Pages: []ocr.Page{densha(), page(line(word("駅", 0, 0, 10, 10)))}}
	pages, stats := ProcessResult(result, DefaultOptions())
	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if stats.Furigana != 2 || stats.Words != 5 || stats.Lines != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}
