package webfetch

import "context"

// Fake is a canned Fetcher for tests. When Pages is set, the body is
// looked up by URL; otherwise Body is returned for every URL. Err, when
// set, wins over both.
type Fake struct {
	Body  string
	Pages map[string]string
	Err   error

	// Requested records the URLs fetched, in order.
	Requested []string
}

// Fetch implements Fetcher.
func (f *Fake) Fetch(_ context.Context, url string) (string, error) {
	f.Requested = append(f.Requested, url)
	if f.Err != nil {
		return "", f.Err
	}
	if f.Pages != nil {
		return f.Pages[url], nil
	}
	return f.Body, nil
}
