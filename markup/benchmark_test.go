package markup

import "testing"

const benchmarkMarkup = `<h1>Heading</h1>` +
	`<p style="text-align: center">This is <strong>bold</strong> text with <a href="https://example.com">link</a>.</p>` +
	`<blockquote><p>Quoted <em>text</em></p></blockquote>` +
	`<ul><li><p>one</p></li><li><p>two</p><ol><li><p>nested</p></li></ol></li></ul>` +
	`<p><img src="https://cdn.example.com/a.png" alt="a"><br>caption</p>` +
	`<div data-type="embed"><iframe src="https://www.youtube.com/embed/x"></iframe></div>`

func BenchmarkDeserialize(b *testing.B) {
	c, err := New(Config{})
	if err != nil {
		b.Fatalf("failed to create codec: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Deserialize(benchmarkMarkup); err != nil {
			b.Fatalf("deserialize failed: %v", err)
		}
	}
}

func BenchmarkSerialize(b *testing.B) {
	c, err := New(Config{})
	if err != nil {
		b.Fatalf("failed to create codec: %v", err)
	}
	result, err := c.Deserialize(benchmarkMarkup)
	if err != nil {
		b.Fatalf("deserialize failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Serialize(result.Document)
	}
}
