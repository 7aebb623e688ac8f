package previewer

import (
	"fmt"
	"os"
)

// UnknownVersionPrefix marks fingerprints that matched no known release.
const UnknownVersionPrefix = "unknown"

// The Previewer ships no reliable version metadata, so releases are
// fingerprinted by the byte size of the main executable. The tables below
// list every known release size. Windows and Linux (Wine) share the same
// executable; macOS ships its own build.

var programVersionsWindows = map[int64]string{
	16263168: "3.0.0",
	16229376: "3.1.0",
	17240064: "3.2.0",
	17299456: "3.3.0",
	18409984: "3.4.0",
	18294784: "3.5.0",
	20320256: "3.6.0",
	20335616: "3.7.0",
	20336128: "3.7.1",
	20561920: "3.8.0",
	20816896: "3.9.0",
	21291008: "3.10.1",
	21503488: "3.11.0",
	21699072: "3.12.0",
	21701120: "3.13.0",
	21845504: "3.14.0",
	21826560: "3.15.0",
	21918208: "3.16.0",
	22158848: "3.17.0",
	22113280: "3.17.1",
	24826344: "3.20.0",
	24829416: "3.20.1",
	24845288: "3.21.0",
	24932280: "3.22.0",
	25197496: "3.23.0",
	25367992: "3.24.0",
	28348344: "3.25.0",
	28277176: "3.27.0",
	28413880: "3.28.0",
	28799416: "3.29.0",
	28437944: "3.29.1",
	28801976: "3.29.2",
	28875192: "3.30.0",
	29624248: "3.31.0",
	29670840: "3.32.0",
	29815224: "3.33.0",
	25593272: "3.34.0",
	25866680: "3.35.0",
	26056632: "3.36.0",
	26064312: "3.36.1",
	26375096: "3.37.0",
	26385848: "3.38.0",
	32604616: "3.39.0",
	32605640: "3.39.1",
	36847048: "3.40.0",
	36847560: "3.41.0",
	36911048: "3.42.0",
	37035464: "3.43.0",
	37058504: "3.44.0",
	37103048: "3.45.0",
	37167048: "3.46.0",
	37716936: "3.47.0",
	31192008: "3.48.0",
	31392200: "3.49.0",
	31391056: "3.50.0",
	31521120: "3.51.0",
	36353056: "3.52.0",
	30829600: "3.52.1",
	36441120: "3.53.0",
	36407896: "3.54.0",
	36436056: "3.55.0",
	36519000: "3.56.0",
	36520024: "3.56.1",
	36624472: "3.57.0",
	36629080: "3.57.1",
	31135832: "3.58.0",
	31169624: "3.59.0",
	31166040: "3.59.1",
	31109208: "3.60.0",
	31429984: "3.61.0",
	31458656: "3.62.0",
	31503712: "3.63.1",
	31574472: "3.64.0",
	31382472: "3.65.0",
	31451080: "3.66.0",
	31647232: "3.67.0",
	31900672: "3.68.0",
	31925760: "3.69.0",
	31975424: "3.70.1",
	32035840: "3.71.1",
	32355840: "3.72.0",
	32509440: "3.73.0",
	32547840: "3.73.1",
	32592384: "3.74.0",
	32728576: "3.75.0",
	32741376: "3.76.0",
	32753152: "3.77.0",
	32752640: "3.77.1",
	32771072: "3.78.0",
	32867840: "3.79.0",
	32922112: "3.80.0",
	32965632: "3.81.0",
	33316352: "3.82.0",
	33511936: "3.83.0",
	33531904: "3.84.0",
	33538048: "3.85.1",
	36281344: "3.86.0",
	36311040: "3.87.0",
	36380672: "3.88.0",
}

var programVersionsDarwin = map[int64]string{
	39253104: "3.0.0",
	39247040: "3.1.0",
	39405692: "3.2.0",
	38926032: "3.3.0",
	60363396: "3.4.0",
	58373708: "3.5.0",
	60552820: "3.6.0",
	60556308: "3.7.0",
	60941076: "3.8.0",
	60849600: "3.9.0",
	61310668: "3.10.1",
	61641952: "3.11.0",
	61868392: "3.12.0",
	61971840: "3.13.0",
	62280808: "3.14.0",
	62463396: "3.15.0",
	62595768: "3.16.0",
	62932776: "3.17.0",
	62183980: "3.17.1",
	67303184: "3.20.0",
	67305144: "3.20.1",
	65788280: "3.21.0",
	65986852: "3.22.0",
	66364496: "3.23.0",
	67069284: "3.24.0",
	70183476: "3.25.0",
	67716468: "3.26.0",
	66488936: "3.27.0",
	66751500: "3.28.0",
	67228156: "3.29.0",
	66697784: "3.29.1",
	67236432: "3.29.2",
	67314860: "3.30.0",
	68478620: "3.31.0",
	68525508: "3.32.0",
	68666480: "3.33.0",
	64456784: "3.34.0",
	64552264: "3.35.0",
	64679496: "3.36.0",
	64688208: "3.36.1",
	70578752: "3.37.0",
	70587408: "3.38.0",
	78298688: "3.39.0",
	80114960: "3.40.0",
	80206592: "3.42.0",
	76647328: "3.43.0",
	72416848: "3.44.0",
	72516784: "3.45.0",
	72575904: "3.46.0",
	73125584: "3.47.0",
	67212272: "3.48.0",
	67636368: "3.49.0",
	67636304: "3.50.0",
	67765504: "3.51.0",
	72317072: "3.52.0",
	66928400: "3.52.1",
	72388352: "3.53.0",
	73574736: "3.54.0",
	73592176: "3.55.0",
	73750896: "3.56.0",
	73750960: "3.56.1",
	73901008: "3.57.0",
	73901552: "3.57.1",
	73902000: "3.58.0",
	73911824: "3.59.0",
	73911648: "3.59.1",
	73888848: "3.60.0",
	73955440: "3.61.0",
	74024736: "3.62.0",
	73877008: "3.63.1",
	73967008: "3.64.0",
	74416512: "3.65.0",
	74645840: "3.66.0",
	75207232: "3.67.0",
	76275680: "3.68.0",
	76342384: "3.69.0",
	76540640: "3.70.1",
	76939232: "3.71.1",
	82354336: "3.72.0",
	82512032: "3.73.0",
	82561888: "3.73.1",
	82628624: "3.74.0",
	82762480: "3.75.0",
	82779456: "3.76.0",
	82796064: "3.77.1",
	82812928: "3.78.0",
	81620480: "3.79.0",
	81687344: "3.80.0",
	81737648: "3.81.0",
	81803920: "3.82.0",
	83163792: "3.83.0",
	83196976: "3.84.0",
	83197120: "3.85.1",
	83953984: "3.86.0",
	83987474: "3.87.0",
}

// programVersion fingerprints the installed executable by size. A missing
// executable yields the bare unknown prefix; an unrecognized size yields
// "unknown_<size>" so support logs still identify the build.
func programVersion(mainProgramPath string) string {
	fi, err := os.Stat(mainProgramPath)
	if err != nil || fi.IsDir() {
		return UnknownVersionPrefix
	}
	if v, ok := programVersions[fi.Size()]; ok {
		return v
	}
	return fmt.Sprintf("%s_%d", UnknownVersionPrefix, fi.Size())
}

// latestKnownVersion returns the newest release in the fingerprint table.
// Used as the default "desired" version for upgrade recommendations.
func latestKnownVersion() string {
	latest := ""
	for _, v := range programVersions {
		if latest == "" || CompareVersions(v, latest) > 0 {
			latest = v
		}
	}
	return latest
}
