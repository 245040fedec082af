package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAllThreeFacts(t *testing.T) {
	text := "Founded in 1998, Acme Corp serves enterprise clients. About us: we build widgets. Contact: hi@acme.com."

	facts := Extract(text)

	assert.Contains(t, facts.FoundedInfo, "1998")
	assert.Equal(t, "About us: we build widgets", facts.AboutUs)
	assert.Equal(t, "hi@acme.com", facts.Email)
}

func TestExtractFounded(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"founded in year", "The company was Founded in 1998 by two brothers.", "Founded in 1998"},
		{"founded without in", "Founded 2005, we grew fast.", "Founded 2005"},
		{"established", "Established in 1972 as a family business.", "Established in 1972"},
		{"since", "Serving the region since 1985.", "since 1985"},
		{"case insensitive", "FOUNDED IN 2010 in Berlin.", "FOUNDED IN 2010"},
		{"first match wins", "Founded in 1998. Established in 2001.", "Founded in 1998"},
		{"no match", "We make widgets.", ""},
		{"year alone is not enough", "Our 1998 product line.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text).FoundedInfo)
		})
	}
}

func TestExtractAboutUs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"sentence containing phrase",
			"We sell pipes. About us: a plumbing company from Ohio. Call now.",
			"About us: a plumbing company from Ohio",
		},
		{
			"case insensitive",
			"Learn more ABOUT US and our history. Next sentence.",
			"Learn more ABOUT US and our history",
		},
		{
			"first occurrence wins",
			"About us here. More about us there.",
			"About us here",
		},
		{
			"phrase absent",
			"We are a company. Our story is long.",
			"",
		},
		{
			"no trailing boundary",
			"Everything you want to know about us",
			"Everything you want to know about us",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text).AboutUs)
		})
	}
}

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "Reach us at info@example.com today", "info@example.com"},
		{"with punctuation around", "Email: sales+eu@acme.co.uk.", "sales+eu@acme.co.uk"},
		{"first of several", "a@one.com and b@two.com", "a@one.com"},
		{"none", "no contact details here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text).Email)
		})
	}
}

func TestExtractIndependentFields(t *testing.T) {
	// One field missing never blanks the others.
	facts := Extract("Founded in 2001. No about section, no email.")
	assert.Equal(t, "Founded in 2001", facts.FoundedInfo)
	assert.Empty(t, facts.AboutUs)
	assert.Empty(t, facts.Email)
}

func TestExtractDeterministic(t *testing.T) {
	text := "Founded in 1998. About us: widgets. hi@acme.com"
	first := Extract(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Extract(text))
	}
}

func TestExtractEmptyInput(t *testing.T) {
	facts := Extract("")
	assert.Empty(t, facts.FoundedInfo)
	assert.Empty(t, facts.AboutUs)
	assert.Empty(t, facts.Email)
}
