package ingest

import (
	"fmt"
	"regexp"
	"strings"
)

// productIDPattern extracts the store product id (ASIN) from an Amazon
// product URL.
var productIDPattern = regexp.MustCompile(`amazon\..+/dp/(.+?)/`)

// ParseProductLink turns one pasted product URL into a parse-queue
// descriptor.
func ParseProductLink(line string) (ProductDescriptor, error) {
	trimmed := strings.TrimSpace(line)
	match := productIDPattern.FindStringSubmatch(trimmed)
	if len(match) < 2 {
		return ProductDescriptor{}, fmt.Errorf("invalid product link: %q", line)
	}

	return ProductDescriptor{
		ID:     match[1],
		Type:   SourceAmazon,
		Region: InferRegion(trimmed),
	}, nil
}

// InferRegion guesses the store region from a URL; amazon.ca maps to ca,
// everything else to com.
func InferRegion(url string) ReviewRegion {
	if strings.Contains(url, "amazon.ca") {
		return RegionCa
	}
	return RegionCom
}
