package cli

import (
	"fmt"
	"strings"

	"cms-platform/client"
	"cms-platform/content"
)

type tagsResult struct {
	Tags []string `json:"tags"`
}

func (r tagsResult) String() string {
	if len(r.Tags) == 0 {
		return "no tags"
	}
	return content.FormatTagInput(r.Tags)
}

type checkResult struct {
	Mode           string `json:"mode"`
	Words          int    `json:"words"`
	ReadingMinutes int    `json:"reading_minutes"`
}

func (r checkResult) String() string {
	target := "publish"
	if r.Mode == string(content.StatusDraft) {
		target = "save as draft"
	}
	return fmt.Sprintf("ok: ready to %s (%d words, %d min read)", target, r.Words, r.ReadingMinutes)
}

type userView client.Profile

func (u userView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s> (%s)", u.Username, u.Email, u.Role)
	if len(u.Interests) > 0 {
		names := make([]string, len(u.Interests))
		for i, c := range u.Interests {
			names[i] = c.Name
		}
		fmt.Fprintf(&b, "\ninterests: %s", strings.Join(names, ", "))
	}
	return b.String()
}

func postWords(p client.Post) int {
	if p.WordCount > 0 {
		return p.WordCount
	}
	return content.WordCount(p.Content)
}

func postMinutes(p client.Post) int {
	if p.ReadingMinutes > 0 {
		return p.ReadingMinutes
	}
	return content.ReadingMinutes(p.Content)
}

func categoryName(p client.Post) string {
	if p.Category == nil {
		return "-"
	}
	return p.Category.Name
}

type postView client.Post

func (v postView) String() string {
	p := client.Post(v)
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s [%s]\n", p.ID, p.Title, p.Status)
	fmt.Fprintf(&b, "category: %s  tags: %s\n", categoryName(p), content.FormatTagInput(p.Tags))
	fmt.Fprintf(&b, "%d words, %d min read, %d likes, %d comments", postWords(p), postMinutes(p), p.LikesCount, p.CommentsCount)
	if !p.Show {
		b.WriteString("\nhidden by a moderator")
	}
	return b.String()
}

func postLine(p client.Post) string {
	line := fmt.Sprintf("[%d] %s (%s, %d words)", p.ID, p.Title, p.Status, postWords(p))
	if len(p.Tags) > 0 {
		line += " " + content.FormatTagInput(p.Tags)
	}
	if !p.Show {
		line += " hidden"
	}
	return line
}

type postList []client.Post

func (l postList) String() string {
	if len(l) == 0 {
		return "no posts"
	}
	lines := make([]string, len(l))
	for i, p := range l {
		lines[i] = postLine(p)
	}
	return strings.Join(lines, "\n")
}

type postPage client.Page[client.Post]

func (pg postPage) String() string {
	return fmt.Sprintf("%s\npage %d of %d (%d posts)", postList(pg.Results), pg.Page, pg.TotalPages, pg.Count)
}

type likeView struct {
	PostID int64 `json:"post_id"`
	client.LikeResult
}

func (v likeView) String() string {
	return fmt.Sprintf("%s post #%d (%d likes)", v.Action, v.PostID, v.LikesCount)
}

type commentView client.Comment

func (c commentView) String() string {
	return fmt.Sprintf("comment #%d on post #%d by %s: %s", c.ID, c.BlogID, c.User.Username, c.Content)
}

type uploadView struct {
	URL string `json:"url"`
}

func (u uploadView) String() string { return u.URL }

type messageView struct {
	Message string `json:"message"`
}

func (m messageView) String() string { return m.Message }

type adminUserView client.AdminUser

func (u adminUserView) String() string {
	state := "active"
	if !u.IsActive {
		state = "inactive"
	}
	return fmt.Sprintf("[%d] %s <%s> %s, %s, %d posts", u.ID, u.Username, u.Email, u.Role, state, u.Posts)
}

type userPage client.Page[client.AdminUser]

func (pg userPage) String() string {
	if len(pg.Results) == 0 {
		return "no users"
	}
	lines := make([]string, 0, len(pg.Results)+1)
	for _, u := range pg.Results {
		lines = append(lines, adminUserView(u).String())
	}
	lines = append(lines, fmt.Sprintf("page %d of %d (%d users)", pg.Page, pg.TotalPages, pg.Count))
	return strings.Join(lines, "\n")
}

type postDetailView client.PostDetail

func (v postDetailView) String() string {
	var b strings.Builder
	b.WriteString(postView(v.Post).String())
	if len(v.Comments) == 0 {
		b.WriteString("\nno comments")
	}
	for _, c := range v.Comments {
		fmt.Fprintf(&b, "\n  [%d] %s: %s", c.ID, c.User.Username, c.Content)
	}
	return b.String()
}

type exportView struct {
	PostID int64  `json:"post_id"`
	Path   string `json:"path"`
	Bytes  int    `json:"bytes"`
}

func (v exportView) String() string {
	return fmt.Sprintf("exported post #%d to %s (%d bytes)", v.PostID, v.Path, v.Bytes)
}
