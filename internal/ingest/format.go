package ingest

import "strings"

// VendorFormat identifies the export convention of a meter or CGM app.
type VendorFormat string

const (
	FormatAgaMatrix      VendorFormat = "AgaMatrix"
	FormatFreestyleLibre VendorFormat = "FreestyleLibre"
	FormatOneTouch       VendorFormat = "OneTouch"
	FormatDexcom         VendorFormat = "Dexcom"
	FormatContour        VendorFormat = "Contour"
	FormatGeneric        VendorFormat = "Generic"
	FormatUnknown        VendorFormat = "Unknown"
)

// sniffLines is how many leading lines DetectFormat inspects.
const sniffLines = 10

// vendorKeywords is ordered; the first group with any hit wins.
var vendorKeywords = []struct {
	format   VendorFormat
	keywords []string
}{
	{FormatAgaMatrix, []string{"agamatrix", "aga matrix", "wavesense", "jazz wireless"}},
	{FormatFreestyleLibre, []string{"freestyle", "libre", "libreview", "abbott"}},
	{FormatOneTouch, []string{"onetouch", "one touch", "lifescan", "verio", "reveal"}},
	{FormatDexcom, []string{"dexcom", "clarity", "transmitter"}},
	{FormatContour, []string{"contour", "ascensia", "bayer", "glucofacts"}},
}

// genericKeywords mark a file as glucose-like without naming a vendor.
var genericKeywords = []string{
	"glucose", "blood sugar", "bg", "mg/dl", "mmol", "reading", "date", "time",
}

// DetectFormat inspects the first lines of a file and returns its vendor format.
// Vendor keywords are checked before the generic vocabulary since vendor
// exports also mention glucose, dates, and times.
func DetectFormat(lines []string) VendorFormat {
	n := len(lines)
	if n > sniffLines {
		n = sniffLines
	}
	head := strings.ToLower(strings.Join(lines[:n], "\n"))

	for _, group := range vendorKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(head, kw) {
				return group.format
			}
		}
	}
	for _, kw := range genericKeywords {
		if strings.Contains(head, kw) {
			return FormatGeneric
		}
	}
	return FormatUnknown
}
