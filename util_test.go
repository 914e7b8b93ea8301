package goofx_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/rockstardevs/goofx/v2"
)

var _ = Describe("goofx", func() {
	Describe("UnescapeString()", func() {
		DescribeTable("should decode character entities",
			func(input, expected string) {
				got, err := goofx.UnescapeString(input)
				Expect(err).To(Succeed())
				Expect(got).To(Equal(expected))
			},
			Entry("no entities", "Sample Expense", "Sample Expense"),
			Entry("named entities", "x &lt; &gt; &quot; &apos; &amp;", `x < > " ' &`),
			Entry("nbsp", "a&nbsp;b", "a\u00a0b"),
			Entry("decimal reference", "caf&#233;", "café"),
			Entry("hex reference", "caf&#xE9;", "café"),
			Entry("adjacent", "&amp;&amp;", "&&"),
		)
		DescribeTable("should reject malformed entities",
			func(input string) {
				_, err := goofx.UnescapeString(input)
				Expect(err).To(MatchError(goofx.ErrParse))
			},
			Entry("unterminated", "Smith & Sons"),
			Entry("unknown name", "&copy;"),
			Entry("bad number", "&#xZZ;"),
			Entry("invalid rune", "&#xD800;"),
		)
	})
})
