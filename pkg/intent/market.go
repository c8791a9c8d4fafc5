package intent

// Store locator prefixes.
const (
	MarketPrefix         = "market://details?id="
	AmazonAppStorePrefix = "amzn://apps/android?p="
	GooglePlayWebPrefix  = "https://play.google.com/store/apps/details?id="
	AmazonStoreWebPrefix = "http://www.amazon.com/gp/mas/dl/android?p="
)

var storeFlags = []Flag{FlagNoHistory, FlagClearWhenTaskReset}

// MarketCandidates returns, in order of preference, requests opening the store
// page of packageName in the native market app, the Amazon app store, and the
// Google Play web store.
func MarketCandidates(packageName string) ([]Request, error) {
	return storeCandidates(packageName, MarketPrefix, AmazonAppStorePrefix, GooglePlayWebPrefix)
}

// GooglePlayCandidates returns the native market request followed by the
// Google Play web store.
func GooglePlayCandidates(packageName string) ([]Request, error) {
	return storeCandidates(packageName, MarketPrefix, GooglePlayWebPrefix)
}

// AmazonStoreCandidates returns the Amazon app store request followed by the
// Amazon web store.
func AmazonStoreCandidates(packageName string) ([]Request, error) {
	return storeCandidates(packageName, AmazonAppStorePrefix, AmazonStoreWebPrefix)
}

func storeCandidates(packageName string, prefixes ...string) ([]Request, error) {
	if isBlank(packageName) {
		return nil, invalidArgument("package name is required")
	}
	pkg := EncodeText(packageName)
	out := make([]Request, 0, len(prefixes))
	for _, prefix := range prefixes {
		out = append(out, Request{
			Verb:   VerbView,
			Target: prefix + pkg,
			Flags:  append([]Flag(nil), storeFlags...),
		})
	}
	return out, nil
}
