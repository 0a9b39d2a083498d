package tui

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dyk-im/Break-Bias/internal/domain"
	"github.com/dyk-im/Break-Bias/internal/service"
)

// historyCap bounds the in-memory chat history.
const historyCap = 20

// apologyMessage replaces the narrative when generation fails; the
// analysis numbers below it are still shown.
const apologyMessage = "죄송합니다. 응답 생성 중 문제가 발생했습니다. 잠시 후 다시 시도해주세요."

// defaultVideoQuery is analyzed when a pasted URL comes with no question.
const defaultVideoQuery = "이 영상에 대한 전반적인 여론"

// ServicePort is the TUI-facing subset of the opinion service.
type ServicePort interface {
	CollectAndAnalyzeTopic(ctx context.Context, topic string, maxVideos, maxCommentsPerVideo int) (domain.CollectionSummary, error)
	CollectVideoComments(ctx context.Context, videoID string, maxComments int) (domain.CollectionSummary, error)
	AnalyzeOpinion(ctx context.Context, query, topic string, topK int, detailed bool) (*domain.AnalysisResult, error)
	GetTopicOverview(ctx context.Context, topic string) (*domain.TopicOverview, error)
	ClearTopicData(ctx context.Context, topic string) error
	GetSystemStats(ctx context.Context) (domain.SystemStats, error)
	GenerateResponse(ctx context.Context, query string, history []domain.ChatMessage) (string, []string, error)
}

// Options carries the collection tunables through to slash commands.
type Options struct {
	MaxVideos           int
	MaxCommentsPerVideo int
	TopK                int
}

// Model is the Bubble Tea model for the opinion analysis chat.
type Model struct {
	service  ServicePort
	opts     Options
	input    textinput.Model
	viewport viewport.Model
	result   *domain.AnalysisResult
	history  []domain.ChatMessage
	topic    string
	status   string
	cursor   int
	ready    bool
}

// New creates a new TUI model instance.
func New(svc ServicePort, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "질문을 입력하세요 (/help 로 명령어 보기)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  svc,
		opts:     opts,
		input:    ti,
		viewport: vp,
		status:   "Ready. /collect <topic> 으로 댓글을 수집하세요.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2 // header + topic line
		totalFooterLines := 1 // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line != "" {
				m = m.submit(line)
				m.input.SetValue("")
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "down":
			if m.result != nil && len(m.result.RepresentativeComments) > 0 {
				m.cursor = (m.cursor + 1) % len(m.result.RepresentativeComments)
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "up":
			if m.result != nil && len(m.result.RepresentativeComments) > 0 {
				n := len(m.result.RepresentativeComments)
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(line string) Model {
	ctx := context.Background()

	if id := extractVideoID(line); id != "" {
		sum, err := m.service.CollectVideoComments(ctx, id, m.opts.MaxCommentsPerVideo)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		m.topic = id
		query := stripVideoURL(line)
		if query == "" {
			query = defaultVideoQuery
		}
		m = m.analyze(ctx, query)
		if !strings.HasPrefix(m.status, "Error:") {
			m.status = fmt.Sprintf("영상 %s: 댓글 %d개 수집, %s", id, sum.CollectedComments, m.status)
		}
		return m
	}

	if strings.HasPrefix(line, "/") {
		return m.runCommand(ctx, line)
	}

	if m.topic != "" {
		return m.analyze(ctx, line)
	}

	answer, sources, err := m.service.GenerateResponse(ctx, line, m.history)
	var genErr *service.GenerationError
	if errors.As(err, &genErr) {
		answer = apologyMessage
		sources = nil
	} else if err != nil {
		m.status = "Error: " + err.Error()
		return m
	}
	m.history = appendHistory(m.history, domain.ChatMessage{Role: "user", Content: line})
	m.history = appendHistory(m.history, domain.ChatMessage{Role: "assistant", Content: answer})
	m.result = &domain.AnalysisResult{Query: line, AnalysisText: answer, Keywords: sources}
	m.cursor = 0
	m.status = "답변 완료"
	return m
}

// analyze runs an opinion analysis against the current topic and renders
// the result, softening generation failures into the apology message.
func (m Model) analyze(ctx context.Context, query string) Model {
	res, err := m.service.AnalyzeOpinion(ctx, query, m.topic, m.opts.TopK, true)
	var genErr *service.GenerationError
	switch {
	case errors.As(err, &genErr):
		res.AnalysisText = apologyMessage
		m.status = "분석 완료 (응답 생성 실패)"
	case err != nil:
		m.status = "Error: " + err.Error()
		return m
	default:
		m.status = fmt.Sprintf("분석 완료: 관련 댓글 %d개", res.TotalRelevantComments)
	}
	m.result = res
	m.cursor = 0
	return m
}

func (m Model) runCommand(ctx context.Context, line string) Model {
	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "collect":
		if arg == "" {
			m.status = "Usage: /collect <topic>"
			return m
		}
		sum, err := m.service.CollectAndAnalyzeTopic(ctx, arg, m.opts.MaxVideos, m.opts.MaxCommentsPerVideo)
		if errors.Is(err, service.ErrCollectionBusy) {
			m.status = fmt.Sprintf("주제 %q 수집이 이미 진행 중입니다.", arg)
			return m
		}
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		m.topic = arg
		m.status = fmt.Sprintf("주제 %q: 댓글 %d개 수집 (%d개 처리)", arg, sum.CollectedComments, sum.ProcessedChunks)
	case "topic":
		m.topic = arg
		if arg == "" {
			m.status = "주제 해제. 일반 대화 모드입니다."
		} else {
			m.status = fmt.Sprintf("현재 주제: %q", arg)
		}
	case "overview":
		topic := arg
		if topic == "" {
			topic = m.topic
		}
		if topic == "" {
			m.status = "Usage: /overview <topic>"
			return m
		}
		ov, err := m.service.GetTopicOverview(ctx, topic)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		m.result = &domain.AnalysisResult{
			Query:                 "overview",
			Topic:                 ov.Topic,
			AnalysisText:          renderOverview(ov),
			Sentiment:             ov.Sentiment,
			Keywords:              ov.TopKeywords,
			TotalRelevantComments: ov.TotalComments,
		}
		m.cursor = 0
		m.status = fmt.Sprintf("주제 %q 개요", topic)
	case "clear":
		if arg == "" {
			m.status = "Usage: /clear <topic>"
			return m
		}
		if err := m.service.ClearTopicData(ctx, arg); err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		if m.topic == arg {
			m.topic = ""
		}
		m.status = fmt.Sprintf("주제 %q 데이터 삭제 완료", arg)
	case "stats":
		stats, err := m.service.GetSystemStats(ctx)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m
		}
		m.status = fmt.Sprintf("저장 댓글 %d개 | 임베딩 %s | 저장소 %s | %s",
			stats.TotalStoredComments, stats.EmbeddingModel, stats.VectorStoreType, stats.Status)
	case "help":
		m.status = "/collect <topic> | /topic <topic> | /overview [topic] | /clear <topic> | /stats"
	default:
		m.status = fmt.Sprintf("Unknown command %q. /help 를 입력하세요.", cmd)
	}
	return m
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Break Bias — YouTube Opinion Analysis")
	topicLine := "일반 대화 모드"
	if m.topic != "" {
		topicLine = "주제: " + m.topic
	}
	topic := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(topicLine)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + topic + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderResult() string {
	if m.result == nil {
		return "아직 분석 결과가 없습니다."
	}
	r := m.result
	var b strings.Builder
	b.WriteString(r.AnalysisText)
	if !r.Sentiment.IsZero() {
		b.WriteString("\n\n")
		b.WriteString(sentimentStyle.Render(fmt.Sprintf(
			"감성: 긍정 %.0f%% / 부정 %.0f%% / 중립 %.0f%%",
			r.Sentiment.Positive*100, r.Sentiment.Negative*100, r.Sentiment.Neutral*100)))
	}
	if len(r.Keywords) > 0 {
		b.WriteString("\n키워드: " + strings.Join(r.Keywords, ", "))
	}
	if len(r.RepresentativeComments) > 0 {
		rep := r.RepresentativeComments[m.cursor]
		b.WriteString(fmt.Sprintf("\n\n대표 댓글 %d/%d  score=%.3f\n", m.cursor+1, len(r.RepresentativeComments), rep.CombinedScore))
		b.WriteString(highlightStyle.Render(rep.Content))
		b.WriteString(fmt.Sprintf("\n— %s (👍%d)", rep.Author, rep.LikeCount))
	}
	return b.String()
}

func renderOverview(ov *domain.TopicOverview) string {
	return fmt.Sprintf("주제 %q 에서 %d개의 댓글을 찾았습니다. (저장소 전체 %d개 문서)",
		ov.Topic, ov.TotalComments, ov.CollectionStats.TotalDocuments)
}

func appendHistory(history []domain.ChatMessage, msg domain.ChatMessage) []domain.ChatMessage {
	history = append(history, msg)
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}
	return history
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sentimentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	videoURLRe     = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([A-Za-z0-9_-]{11})`)
	videoURLSpanRe = regexp.MustCompile(`\S*(?:youtube\.com/watch\?v=|youtu\.be/)[A-Za-z0-9_-]{11}\S*`)
)

// extractVideoID pulls a video ID out of a pasted YouTube URL, or returns
// an empty string when the line is not one.
func extractVideoID(line string) string {
	match := videoURLRe.FindStringSubmatch(line)
	if match == nil {
		return ""
	}
	return match[1]
}

// stripVideoURL removes the URL from a pasted line, leaving the question
// that accompanied it.
func stripVideoURL(line string) string {
	rest := videoURLSpanRe.ReplaceAllString(line, " ")
	return strings.Join(strings.Fields(rest), " ")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
