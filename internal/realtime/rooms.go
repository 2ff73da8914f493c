package realtime

// RoomNameFor returns the broadcast group every connection of user joins.
func RoomNameFor(user UserID) string {
	return "user:" + string(user)
}

// rooms holds named broadcast groups. Owned by the Hub goroutine.
type rooms map[string]map[*Client]struct{}

func (r rooms) join(name string, c *Client) {
	members, ok := r[name]
	if !ok {
		members = make(map[*Client]struct{})
		r[name] = members
	}
	members[c] = struct{}{}
}

func (r rooms) leave(name string, c *Client) {
	members, ok := r[name]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r, name)
	}
}

func (r rooms) members(name string) []*Client {
	members := r[name]
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}
