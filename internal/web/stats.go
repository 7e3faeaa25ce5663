package web

import "github.com/sakif/whispering-network/internal/model"

// Stats are the dashboard counters shown on the admin page.
//
// Reply counts and repliers are taken from the public feed only; private
// messages contribute to Private and nothing else.
type Stats struct {
	Private      int
	Public       int
	TotalReplies int
	ActiveUsers  int
}

// ComputeStats derives the dashboard counters from the two feeds.
// ActiveUsers is the number of distinct reply nicknames.
func ComputeStats(private, public []model.MessageWithReplies) Stats {
	st := Stats{
		Private: len(private),
		Public:  len(public),
	}

	nicknames := make(map[string]struct{})
	for _, m := range public {
		st.TotalReplies += len(m.Replies)
		for _, r := range m.Replies {
			nicknames[r.Nickname] = struct{}{}
		}
	}
	st.ActiveUsers = len(nicknames)
	return st
}
