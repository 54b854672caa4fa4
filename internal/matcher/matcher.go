// Package matcher pairs pending requests with available organs.
//
// HOW A MATCH IS CHOSEN:
// For each request, walk the organs in the order given and take the FIRST one
// whose Type and BloodGroup equal the request's RequestedType and
// RequestedBloodGroup. Comparison is exact string equality: "O+" does not
// match "o+", and no blood-type compatibility rules apply (an O- organ is not
// offered to an A+ request).
//
// The function is pure. Callers decide which requests and organs to pass in
// and in what order; the result is recomputed on every call.
package matcher

import "github.com/sakif/organlink/internal/model"

// Pair is one request together with its chosen organ. Organ is nil when
// nothing matched.
type Pair struct {
	Request model.Request
	Organ   *model.Organ
}

// Match returns one Pair per request, in request order. Requests whose
// status is not pending and organs that are not available are skipped, so
// callers may pass unfiltered slices.
//
// Two requests can be paired with the same organ; nothing is reserved.
func Match(requests []model.Request, organs []model.Organ) []Pair {
	pairs := make([]Pair, 0, len(requests))

	for _, req := range requests {
		if req.Status != model.RequestPending {
			continue
		}

		pair := Pair{Request: req}
		for i := range organs {
			if organs[i].AvailabilityStatus != model.OrganAvailable {
				continue
			}
			if organs[i].Type == req.RequestedType && organs[i].BloodGroup == req.RequestedBloodGroup {
				organ := organs[i]
				pair.Organ = &organ
				break
			}
		}
		pairs = append(pairs, pair)
	}

	return pairs
}
