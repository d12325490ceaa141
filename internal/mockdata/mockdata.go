// Package mockdata fills the in-memory store with the sample community:
// users, feed posts, bug stories and conversations.
package mockdata

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"gopkg.in/yaml.v3"

	"github.com/codegram/codegram/internal/feed"
	"github.com/codegram/codegram/internal/messages"
	"github.com/codegram/codegram/internal/profile"
	"github.com/codegram/codegram/internal/stories"
)

//go:embed seed.yaml
var seedYAML []byte

// Stores are the destinations of the seed data.
type Stores struct {
	Users    *profile.Store
	Posts    *feed.Store
	Stories  *stories.Store
	Messages *messages.Store
}

// Options controls seeding.
type Options struct {
	// Now anchors the relative ages in the seed file.
	Now time.Time
	// FakePosts adds that many generated snippet posts.
	FakePosts int
	// Seed makes the generated posts reproducible.
	Seed uint64
}

// Summary counts what was inserted.
type Summary struct {
	Users         int
	Posts         int
	Stories       int
	Conversations int
	Messages      int
}

type seedFile struct {
	CurrentUser   seedUser           `yaml:"current_user"`
	Users         []seedUser         `yaml:"users"`
	Posts         []seedPost         `yaml:"posts"`
	Stories       []seedStory        `yaml:"stories"`
	Conversations []seedConversation `yaml:"conversations"`
}

type seedUser struct {
	Username  string `yaml:"username"`
	Name      string `yaml:"name"`
	Avatar    string `yaml:"avatar"`
	Bio       string `yaml:"bio"`
	Followers int    `yaml:"followers"`
	Following int    `yaml:"following"`
	Verified  bool   `yaml:"verified"`
}

type seedPost struct {
	ID            string        `yaml:"id"`
	Type          string        `yaml:"type"`
	Author        string        `yaml:"author"`
	Title         string        `yaml:"title"`
	Content       string        `yaml:"content"`
	Caption       string        `yaml:"caption"`
	Language      string        `yaml:"language"`
	ComponentType string        `yaml:"component_type"`
	Category      string        `yaml:"category"`
	Tags          []string      `yaml:"tags"`
	Likes         int           `yaml:"likes"`
	Comments      int           `yaml:"comments"`
	Shares        int           `yaml:"shares"`
	Bookmarks     int           `yaml:"bookmarks"`
	Liked         bool          `yaml:"liked"`
	Bookmarked    bool          `yaml:"bookmarked"`
	Age           time.Duration `yaml:"age"`
}

type seedStory struct {
	Author      string        `yaml:"author"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Image       string        `yaml:"image"`
	Viewed      bool          `yaml:"viewed"`
	Age         time.Duration `yaml:"age"`
}

type seedConversation struct {
	Peer     string        `yaml:"peer"`
	Online   bool          `yaml:"online"`
	Unread   int           `yaml:"unread"`
	Messages []seedMessage `yaml:"messages"`
}

type seedMessage struct {
	Mine bool          `yaml:"mine"`
	Text string        `yaml:"text"`
	Age  time.Duration `yaml:"age"`
}

func load() (*seedFile, error) {
	var f seedFile
	if err := yaml.Unmarshal(seedYAML, &f); err != nil {
		return nil, fmt.Errorf("parsing seed data: %w", err)
	}
	return &f, nil
}

// Seed inserts the sample community into s.
func Seed(ctx context.Context, s Stores, opts Options) (*Summary, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	f, err := load()
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	users := make(map[string]profile.User)
	addUser := func(u seedUser, current bool) error {
		created, err := s.Users.Create(ctx, profile.User{
			Username:  u.Username,
			Name:      u.Name,
			Avatar:    u.Avatar,
			Bio:       u.Bio,
			Followers: u.Followers,
			Following: u.Following,
			Verified:  u.Verified,
		}, current)
		if err != nil {
			return err
		}
		users[u.Username] = *created
		sum.Users++
		return nil
	}
	if err := addUser(f.CurrentUser, true); err != nil {
		return nil, err
	}
	for _, u := range f.Users {
		if err := addUser(u, false); err != nil {
			return nil, err
		}
	}
	me := users[f.CurrentUser.Username]

	lookup := func(username string) (profile.User, error) {
		u, ok := users[username]
		if !ok {
			return profile.User{}, fmt.Errorf("seed data references unknown user %q", username)
		}
		return u, nil
	}

	for _, p := range f.Posts {
		author, err := lookup(p.Author)
		if err != nil {
			return nil, err
		}
		_, err = s.Posts.Insert(ctx, feed.Post{
			ID:            p.ID,
			Type:          feed.PostType(p.Type),
			Author:        author,
			Title:         p.Title,
			Content:       p.Content,
			Caption:       p.Caption,
			Language:      p.Language,
			ComponentType: p.ComponentType,
			Category:      p.Category,
			Tags:          p.Tags,
			Likes:         p.Likes,
			Comments:      p.Comments,
			Shares:        p.Shares,
			Bookmarks:     p.Bookmarks,
			Liked:         p.Liked,
			Bookmarked:    p.Bookmarked,
			CreatedAt:     opts.Now.Add(-p.Age),
		})
		if err != nil {
			return nil, fmt.Errorf("seeding post %s: %w", p.ID, err)
		}
		sum.Posts++
	}

	for _, st := range f.Stories {
		author, err := lookup(st.Author)
		if err != nil {
			return nil, err
		}
		_, err = s.Stories.Create(ctx, stories.Story{
			Author:      author,
			Title:       st.Title,
			Description: st.Description,
			Image:       st.Image,
			Viewed:      st.Viewed,
			CreatedAt:   opts.Now.Add(-st.Age),
		})
		if err != nil {
			return nil, fmt.Errorf("seeding story %q: %w", st.Title, err)
		}
		sum.Stories++
	}

	for _, c := range f.Conversations {
		peer, err := lookup(c.Peer)
		if err != nil {
			return nil, err
		}
		conv := messages.Conversation{Peer: peer, Online: c.Online, Unread: c.Unread, LastMessageAt: opts.Now}
		if n := len(c.Messages); n > 0 {
			conv.LastMessage = c.Messages[n-1].Text
			conv.LastMessageAt = opts.Now.Add(-c.Messages[n-1].Age)
		}
		created, err := s.Messages.CreateConversation(ctx, conv)
		if err != nil {
			return nil, fmt.Errorf("seeding conversation with %s: %w", c.Peer, err)
		}
		sum.Conversations++

		for _, m := range c.Messages {
			sender := peer.ID
			if m.Mine {
				sender = me.ID
			}
			_, err := s.Messages.AddMessage(ctx, messages.Message{
				ConversationID: created.ID,
				SenderID:       sender,
				Text:           m.Text,
				SentAt:         opts.Now.Add(-m.Age),
			})
			if err != nil {
				return nil, fmt.Errorf("seeding message: %w", err)
			}
			sum.Messages++
		}
	}

	if opts.FakePosts > 0 {
		authors := make([]profile.User, 0, len(f.Users))
		for _, u := range f.Users {
			authors = append(authors, users[u.Username])
		}
		for _, p := range FakePosts(opts.FakePosts, opts.Seed, authors, opts.Now) {
			if _, err := s.Posts.Insert(ctx, p); err != nil {
				return nil, fmt.Errorf("seeding generated post: %w", err)
			}
			sum.Posts++
		}
	}
	return sum, nil
}

var fakeComponents = []struct {
	componentType string
	language      string
	category      string
}{
	{"html-css", "html", "Components"},
	{"html-tailwind", "html", "Tailwind"},
	{"react-tailwind", "typescript", "React"},
	{"", "css", "CSS"},
}

// FakePosts generates n snippet posts by the given authors. The same
// seed yields the same posts.
func FakePosts(n int, seed uint64, authors []profile.User, now time.Time) []feed.Post {
	if len(authors) == 0 {
		return nil
	}
	f := gofakeit.New(seed)
	posts := make([]feed.Post, 0, n)
	for i := 0; i < n; i++ {
		kind := fakeComponents[f.Number(0, len(fakeComponents)-1)]
		title := capitalize(f.HackerAdjective() + " " + f.HackerNoun() + " " + f.Noun())
		posts = append(posts, feed.Post{
			ID:            fmt.Sprintf("generated-%03d", i+1),
			Type:          feed.TypeSnippet,
			Author:        authors[f.Number(0, len(authors)-1)],
			Title:         title,
			Content:       fakeCode(f, kind.language),
			Caption:       f.HackerPhrase(),
			Language:      kind.language,
			ComponentType: kind.componentType,
			Category:      kind.category,
			Tags:          []string{strings.ToLower(kind.category), f.HackerNoun()},
			Likes:         f.Number(0, 500),
			Comments:      f.Number(0, 80),
			Shares:        f.Number(0, 40),
			Bookmarks:     f.Number(0, 120),
			CreatedAt:     now.Add(-time.Duration(f.Number(1, 14*24*60)) * time.Minute),
		})
	}
	return posts
}

func fakeCode(f *gofakeit.Faker, language string) string {
	label := f.BuzzWord()
	color := f.HexColor()
	switch language {
	case "typescript":
		return fmt.Sprintf("const Button = ({ children }) => (\n  <button style={{ background: '%s' }}>{children}</button>\n);\n\nconst Card = ({ title, description }) => (\n  <div className=\"card\"><h3>{title}</h3><p>{description}</p></div>\n);\n", color)
	case "css":
		return fmt.Sprintf(".btn {\n  background: %s;\n  color: white;\n}\n\n.card {\n  border: 1px solid %s;\n}\n", color, color)
	default:
		return fmt.Sprintf("<div class=\"card\">\n  <h3>%s</h3>\n  <button style=\"background: %s\">%s</button>\n</div>\n", label, color, f.Verb())
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
