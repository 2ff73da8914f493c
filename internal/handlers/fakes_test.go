package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeNotifications struct {
	mu   sync.Mutex
	docs []*models.Notification
	err  error
}

func (f *fakeNotifications) EnsureIndexes(context.Context) error { return nil }

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	n.ID = primitive.NewObjectID()
	f.docs = append(f.docs, n)
	return nil
}

func (f *fakeNotifications) CreateMany(_ context.Context, ns []*models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, n := range ns {
		n.ID = primitive.NewObjectID()
		f.docs = append(f.docs, n)
	}
	return nil
}

func (f *fakeNotifications) UpsertUnreadMessage(_ context.Context, n *models.Notification) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, d := range f.docs {
		if d.Category == models.CategoryNewMessage && !d.Read && d.Recipient == n.Recipient &&
			d.Sender != nil && n.Sender != nil && *d.Sender == *n.Sender && d.RefID == n.RefID {
			d.Title, d.Body, d.Link, d.ExpiresAt = n.Title, n.Body, n.Link, n.ExpiresAt
			copied := *d
			return &copied, nil
		}
	}
	n.ID = primitive.NewObjectID()
	f.docs = append(f.docs, n)
	copied := *n
	return &copied, nil
}

func (f *fakeNotifications) GetByRecipient(_ context.Context, recipient string, page, limit int) ([]models.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mine []models.Notification
	for i := len(f.docs) - 1; i >= 0; i-- {
		if f.docs[i].Recipient == recipient {
			mine = append(mine, *f.docs[i])
		}
	}
	total := int64(len(mine))
	start := (page - 1) * limit
	if start >= len(mine) {
		return []models.Notification{}, total, nil
	}
	end := start + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[start:end], total, nil
}

func (f *fakeNotifications) CountUnread(_ context.Context, recipient string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, d := range f.docs {
		if d.Recipient == recipient && !d.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) find(id, recipient string) (*models.Notification, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrInvalidID
	}
	for _, d := range f.docs {
		if d.ID == objID && d.Recipient == recipient {
			return d, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeNotifications) MarkAsRead(_ context.Context, id, recipient string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, err := f.find(id, recipient)
	if err != nil {
		return err
	}
	d.Read = true
	return nil
}

func (f *fakeNotifications) MarkAllAsRead(_ context.Context, recipient string) (int64, error) {
	return f.markWhere(func(d *models.Notification) bool { return d.Recipient == recipient }), nil
}

func (f *fakeNotifications) MarkConversationRead(_ context.Context, recipient, conversationID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.markWhere(func(d *models.Notification) bool {
		return d.Recipient == recipient && d.Category == models.CategoryNewMessage && d.RefID == conversationID
	}), nil
}

func (f *fakeNotifications) markWhere(match func(*models.Notification) bool) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, d := range f.docs {
		if !d.Read && match(d) {
			d.Read = true
			n++
		}
	}
	return n
}

func (f *fakeNotifications) Delete(_ context.Context, id, recipient string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, err := f.find(id, recipient)
	if err != nil {
		return err
	}
	f.remove(func(x *models.Notification) bool { return x == d })
	return nil
}

func (f *fakeNotifications) DeleteRead(_ context.Context, recipient string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remove(func(d *models.Notification) bool { return d.Recipient == recipient && d.Read }), nil
}

func (f *fakeNotifications) remove(match func(*models.Notification) bool) int64 {
	kept := f.docs[:0]
	var removed int64
	for _, d := range f.docs {
		if match(d) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	f.docs = kept
	return removed
}

func (f *fakeNotifications) forRecipient(recipient string) []*models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, d := range f.docs {
		if d.Recipient == recipient {
			out = append(out, d)
		}
	}
	return out
}

type fakeUsers struct {
	users map[uint]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: make(map[uint]*models.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetUserByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) GetUserByIdentity(identity string) (*models.User, error) {
	id, err := repositories.ParseUserID(identity)
	if err != nil {
		return nil, err
	}
	return f.GetUserByID(id)
}

func (f *fakeUsers) GetUserByFirebaseUID(uid string) (*models.User, error) {
	for _, u := range f.users {
		if u.FirebaseUID != nil && *u.FirebaseUID == uid {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUsers) UpdateUser(user *models.User) error {
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUsers) SetSuspended(id uint, suspended bool) error {
	u, ok := f.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Suspended = suspended
	return nil
}

func (f *fakeUsers) SearchUsers(query string) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Name), strings.ToLower(query)) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) Compact(_ context.Context, identity string) (*models.UserCompact, error) {
	u, err := f.GetUserByIdentity(identity)
	if err != nil {
		return nil, err
	}
	compact := u.ToCompact()
	return &compact, nil
}

type fakeFollows struct {
	edges []models.Follow
}

func (f *fakeFollows) CreateFollow(follow *models.Follow) error {
	f.edges = append(f.edges, *follow)
	return nil
}

func (f *fakeFollows) DeleteFollow(followerID, followingID uint) error {
	for i, e := range f.edges {
		if e.FollowerID == followerID && e.FollowingID == followingID {
			f.edges = append(f.edges[:i], f.edges[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeFollows) IsFollowing(followerID, followingID uint) (bool, error) {
	for _, e := range f.edges {
		if e.FollowerID == followerID && e.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFollows) GetFollowerIDs(userID uint) ([]uint, error) {
	var ids []uint
	for _, e := range f.edges {
		if e.FollowingID == userID {
			ids = append(ids, e.FollowerID)
		}
	}
	return ids, nil
}

type fakeConversations struct {
	byID map[primitive.ObjectID]*models.Conversation
}

func (f *fakeConversations) add(participants ...string) *models.Conversation {
	conv := &models.Conversation{ID: primitive.NewObjectID(), Participants: participants}
	f.byID[conv.ID] = conv
	return conv
}

func (f *fakeConversations) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrInvalidID
	}
	conv, ok := f.byID[objID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return conv, nil
}

func (f *fakeConversations) FindOrCreateDirect(_ context.Context, a, b string) (*models.Conversation, error) {
	for _, conv := range f.byID {
		if conv.HasParticipant(a) && conv.HasParticipant(b) {
			return conv, nil
		}
	}
	return f.add(a, b), nil
}

func (f *fakeConversations) ListForUser(_ context.Context, user string, _, _ int64) ([]models.Conversation, error) {
	out := []models.Conversation{}
	for _, conv := range f.byID {
		if conv.HasParticipant(user) {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (f *fakeConversations) UpdateLastMessage(_ context.Context, id primitive.ObjectID, last models.LastMessage) error {
	conv, ok := f.byID[id]
	if !ok {
		return repositories.ErrNotFound
	}
	conv.LastMessage = &last
	return nil
}

type fakeMessages struct {
	messages []*models.Message
}

func (f *fakeMessages) Create(_ context.Context, m *models.Message) error {
	m.ID = primitive.NewObjectID()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeMessages) ListByConversation(_ context.Context, conversationID primitive.ObjectID, _, _ int64) ([]models.Message, error) {
	out := []models.Message{}
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].ConversationID == conversationID {
			out = append(out, *f.messages[i])
		}
	}
	return out, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, conversationID primitive.ObjectID, recipient string) (int64, error) {
	var n int64
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.Recipient == recipient && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

type fakePosts struct {
	posts map[string]*models.Post
}

func (f *fakePosts) CreatePost(_ context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	f.posts[post.ID.Hex()] = post
	return nil
}

func (f *fakePosts) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repositories.ErrInvalidID
	}
	post, ok := f.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return post, nil
}

func (f *fakePosts) GetPostsByAuthor(_ context.Context, author string, _, _ int64) ([]models.Post, error) {
	out := []models.Post{}
	for _, p := range f.posts {
		if p.Author == author {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePosts) GetAllPosts(context.Context, int64, int64) ([]models.Post, error) {
	out := []models.Post{}
	for _, p := range f.posts {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePosts) DeletePost(_ context.Context, id string) error {
	if _, ok := f.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePosts) AddLikes(_ context.Context, id string, delta int) error {
	if p, ok := f.posts[id]; ok {
		p.LikesCount += delta
	}
	return nil
}

func (f *fakePosts) AddComments(_ context.Context, id string, delta int) error {
	if p, ok := f.posts[id]; ok {
		p.CommentsCount += delta
	}
	return nil
}

type fakeLikes struct {
	likes []models.Like
}

func (f *fakeLikes) CreateLike(like *models.Like) error {
	like.ID = uint(len(f.likes) + 1)
	f.likes = append(f.likes, *like)
	return nil
}

func (f *fakeLikes) DeleteLike(postID string, userID uint) error {
	for i, l := range f.likes {
		if l.PostID == postID && l.UserID == userID {
			f.likes = append(f.likes[:i], f.likes[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeLikes) HasUserLikedPost(postID string, userID uint) (bool, error) {
	for _, l := range f.likes {
		if l.PostID == postID && l.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLikes) CountByPost(postID string) (int64, error) {
	var n int64
	for _, l := range f.likes {
		if l.PostID == postID {
			n++
		}
	}
	return n, nil
}

type fakeComments struct {
	comments []*models.Comment
}

func (f *fakeComments) CreateComment(comment *models.Comment) error {
	comment.ID = uint(len(f.comments) + 1)
	f.comments = append(f.comments, comment)
	return nil
}

func (f *fakeComments) GetCommentByID(id uint) (*models.Comment, error) {
	for _, c := range f.comments {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeComments) GetCommentsByPostID(postID string) ([]models.Comment, error) {
	out := []models.Comment{}
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComments) DeleteComment(id uint) error {
	for i, c := range f.comments {
		if c.ID == id {
			f.comments = append(f.comments[:i], f.comments[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type event struct {
	room string
	typ  string
	data any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event
}

func (p *recordingPublisher) PublishToUser(userID, eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{room: userID, typ: eventType, data: data})
}

func (p *recordingPublisher) Broadcast(eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event{typ: eventType, data: data})
}

func (p *recordingPublisher) ofType(typ string) []event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []event
	for _, e := range p.events {
		if e.typ == typ {
			out = append(out, e)
		}
	}
	return out
}

type fakePresence map[string]bool

func (f fakePresence) OnlineUsers(context.Context) ([]string, error) {
	out := []string{}
	for u, online := range f {
		if online {
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f fakePresence) IsOnline(_ context.Context, userID string) (bool, error) {
	return f[userID], nil
}
