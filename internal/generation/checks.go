package generation

import (
	"fmt"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/content-studio/internal/headlines"
	"github.com/jonathan/content-studio/internal/types"
)

// blockSelector matches the elements links are counted in for clustering.
const blockSelector = "p, li, blockquote, h1, h2, h3, h4, h5, h6, td, figcaption"

// clusterTailShare is the share of trailing blocks that may not hold every link.
const clusterTailShare = 0.25

// minLinksForTailCheck is the smallest link count for which the trailing-blocks rule applies.
const minLinksForTailCheck = 3

// WordCountTolerance is the share of the requested length a draft must reach.
const WordCountTolerance = 0.85

// Draft is a parsed article ready for verification.
type Draft struct {
	HTML string
	// Links holds the absolute http(s) hrefs in document order.
	Links []string
	// BlockLinks holds the link count of each leaf block in document order.
	BlockLinks []int
	Words      int
}

// ParseDraft parses article HTML.
func ParseDraft(html string) (*Draft, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse draft: %w", err)
	}

	d := &Draft{HTML: html}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if isAbsoluteHTTP(href) {
			d.Links = append(d.Links, href)
		}
	})

	doc.Find(blockSelector).
		FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Find(blockSelector).Length() == 0
		}).
		Each(func(_ int, s *goquery.Selection) {
			count := 0
			s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				if isAbsoluteHTTP(strings.TrimSpace(href)) {
					count++
				}
			})
			d.BlockLinks = append(d.BlockLinks, count)
		})

	d.Words = len(strings.Fields(doc.Text()))
	return d, nil
}

func isAbsoluteHTTP(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// UniqueLinks returns the number of distinct links after URL normalization.
func (d *Draft) UniqueLinks() int {
	seen := make(map[string]struct{}, len(d.Links))
	for _, link := range d.Links {
		seen[headlines.NormalizeURLForComparison(link)] = struct{}{}
	}
	return len(seen)
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Passed   bool
	Missing  []types.Source
	Required int
	Actual   int
	// Target is the requested length when Required is a tolerance of it.
	Target int
	Detail string
}

// CheckCitations passes when every required source is linked. A link counts for a source
// when their URL variant sets intersect, so scheme, www, trailing slash, query and Google
// News redirect differences are tolerated.
func CheckCitations(d *Draft, required []types.Source) CheckResult {
	linked := make(map[string]struct{})
	for _, link := range d.Links {
		for _, v := range headlines.BuildURLVariants(link) {
			linked[v] = struct{}{}
		}
	}

	var missing []types.Source
	for _, src := range required {
		if !anyVariantLinked(src.URL, linked) {
			missing = append(missing, src)
		}
	}
	return CheckResult{
		Passed:   len(missing) == 0,
		Missing:  missing,
		Required: len(required),
		Actual:   len(required) - len(missing),
	}
}

func anyVariantLinked(url string, linked map[string]struct{}) bool {
	for _, v := range headlines.BuildURLVariants(url) {
		if _, ok := linked[v]; ok {
			return true
		}
	}
	return false
}

// CheckLinkCount passes when the draft holds at least required distinct links.
func CheckLinkCount(d *Draft, required int) CheckResult {
	actual := d.UniqueLinks()
	return CheckResult{
		Passed:   actual >= required,
		Required: required,
		Actual:   actual,
	}
}

// CheckLinkClustering fails when a single block holds more than maxPerBlock links, or when
// at least three links all sit in the final quarter of the blocks.
func CheckLinkClustering(d *Draft, maxPerBlock int) CheckResult {
	total := 0
	first := -1
	for i, n := range d.BlockLinks {
		if maxPerBlock > 0 && n > maxPerBlock {
			return CheckResult{
				Actual:   n,
				Required: maxPerBlock,
				Detail:   fmt.Sprintf("block %d holds %d links", i+1, n),
			}
		}
		if n > 0 && first < 0 {
			first = i
		}
		total += n
	}

	blocks := len(d.BlockLinks)
	tailStart := blocks - int(math.Floor(float64(blocks)*clusterTailShare))
	if total >= minLinksForTailCheck && tailStart < blocks && first >= tailStart {
		return CheckResult{
			Actual:   total,
			Required: maxPerBlock,
			Detail:   fmt.Sprintf("all %d links are in the last %d of %d blocks", total, blocks-tailStart, blocks),
		}
	}
	return CheckResult{Passed: true, Actual: total, Required: maxPerBlock}
}

// CheckWordCount passes when the draft reaches WordCountTolerance of minWords.
func CheckWordCount(d *Draft, minWords int) CheckResult {
	required := int(math.Ceil(float64(minWords) * WordCountTolerance))
	return CheckResult{
		Passed:   d.Words >= required,
		Required: required,
		Actual:   d.Words,
		Target:   minWords,
	}
}
