// Package seed holds the compile-time seed catalogue used to re-populate the
// crawl queue whenever it drains.
package seed

// Domains is the fixed set of seed domains. Each refill enqueues
// "https://<domain>" for every entry, in this order.
var Domains = []string{
	"arxiv.org",
	"github.com",
	"springer.com",
	"nasa.gov",
	"nist.gov",
	"space.com",
	"livescience.com",
	"preprints.org",
	"eartharxiv.org",
	"engrxiv.org",
	"econpapers.repec.org",
	"frontiersin.org",
	"europepme.org",
	"chemrxiv.org",
}

// URLs returns the seed domains as "https://<domain>" crawl entries. They
// are not in normalized form (no trailing slash); the scheduler normalizes
// each one before enqueue.
func URLs() []string {
	out := make([]string, len(Domains))
	for i, d := range Domains {
		out[i] = "https://" + d
	}
	return out
}
