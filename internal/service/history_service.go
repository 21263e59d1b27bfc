package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"edu-tutor-server/internal/model"
	"edu-tutor-server/internal/repository"
)

// ==================== 历史会话查询 ====================

// 查询的视角角色
const (
	ViewerRoleStudent = "student" // 学生只能看到自己的消息
	ViewerRoleTeacher = "teacher" // 教师看到除自己以外所有人的消息
)

// dateLayout 历史查询日期参数的格式
const dateLayout = "2006-01-02"

// QueryError 查询参数非法
// 处理层据此区分参数错误和数据库错误
type QueryError struct {
	Message string
}

// Error 实现 error 接口
func (e *QueryError) Error() string {
	return e.Message
}

// HistoryQuery 历史会话查询条件
type HistoryQuery struct {
	SubjectLabel string // 复合科目标签，内部拆出基础科目
	ClassLevel   string // 班级，可空
	ViewerRole   string // student / teacher
	ViewerID     string // 查询发起人 ID
	StartDate    string // 起始日期 YYYY-MM-DD，可空
	EndDate      string // 结束日期 YYYY-MM-DD，可空
	SearchTerm   string // 关键词，可空，大小写不敏感
}

// DayConversations 按自然日聚合的会话列表
type DayConversations struct {
	Date          string         `json:"date"` // YYYY-MM-DD
	Conversations []Conversation `json:"conversations"`
}

// HistoryService 历史会话查询服务
// 把扁平的消息流恢复成"按天分桶、桶内按不活跃间隔切分"的会话结构
type HistoryService struct {
	messageRepo *repository.MessageRepository
	gap         time.Duration
}

// NewHistoryService 创建历史查询服务
// gap <= 0 时使用默认的会话切分间隔
func NewHistoryService(messageRepo *repository.MessageRepository, gap time.Duration) *HistoryService {
	if gap <= 0 {
		gap = DefaultConversationGap
	}
	return &HistoryService{messageRepo: messageRepo, gap: gap}
}

// LoadConversations 加载历史会话
// 日期区间为闭区间：起始日 00:00:00 到结束日 23:59:59。
// 关键词过滤在消息加载后于内存中执行，与数据库排序规则无关。
//
// 参数:
//   - query: 查询条件
//
// 返回:
//   - []DayConversations: 按日期升序的会话分组
//   - error: 参数非法时为 *QueryError，其余为数据库错误
func (s *HistoryService) LoadConversations(ctx context.Context, query HistoryQuery) ([]DayConversations, error) {
	subject, parsedLevel := ParseSubjectLabel(query.SubjectLabel)
	if subject == "" {
		return nil, &QueryError{Message: "科目不能为空"}
	}
	classLevel := query.ClassLevel
	if classLevel == "" {
		classLevel = parsedLevel
	}

	filter := repository.MessageFilter{
		Subject:    subject,
		ClassLevel: classLevel,
	}

	switch query.ViewerRole {
	case ViewerRoleStudent:
		filter.AuthorID = query.ViewerID
	case ViewerRoleTeacher:
		filter.ExcludeAuthorID = query.ViewerID
	default:
		return nil, &QueryError{Message: fmt.Sprintf("不支持的查询角色: %s", query.ViewerRole)}
	}

	if query.StartDate != "" {
		start, err := time.Parse(dateLayout, query.StartDate)
		if err != nil {
			return nil, &QueryError{Message: "起始日期格式错误，应为 YYYY-MM-DD"}
		}
		filter.Start = start
	}
	if query.EndDate != "" {
		end, err := time.Parse(dateLayout, query.EndDate)
		if err != nil {
			return nil, &QueryError{Message: "结束日期格式错误，应为 YYYY-MM-DD"}
		}
		filter.End = end.Add(24*time.Hour - time.Second)
	}

	messages, err := s.messageRepo.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("查询历史消息失败: %w", err)
	}

	if term := strings.TrimSpace(query.SearchTerm); term != "" {
		messages = filterByKeyword(messages, term)
	}

	return bucketByDay(messages, s.gap), nil
}

// CountMessages 统计某科目某班级的消息总量
// 教师端用来展示班级活跃度
func (s *HistoryService) CountMessages(ctx context.Context, subjectLabel, classLevel string) (int64, error) {
	subject, parsedLevel := ParseSubjectLabel(subjectLabel)
	if subject == "" {
		return 0, &QueryError{Message: "科目不能为空"}
	}
	if classLevel == "" {
		classLevel = parsedLevel
	}
	return s.messageRepo.CountBySubject(ctx, subject, classLevel)
}

// filterByKeyword 按关键词过滤消息，大小写不敏感
func filterByKeyword(messages []model.Message, term string) []model.Message {
	lowered := strings.ToLower(term)
	filtered := make([]model.Message, 0, len(messages))
	for _, msg := range messages {
		if strings.Contains(strings.ToLower(msg.Content), lowered) {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// bucketByDay 按自然日分桶后在桶内切分会话
// 输入消息已按时间升序，分桶保持该顺序
func bucketByDay(messages []model.Message, gap time.Duration) []DayConversations {
	days := make([]DayConversations, 0)
	index := make(map[string]int)

	buckets := make(map[string][]model.Message)
	for _, msg := range messages {
		day := msg.CreatedAt.Format(dateLayout)
		if _, ok := index[day]; !ok {
			index[day] = len(days)
			days = append(days, DayConversations{Date: day})
		}
		buckets[day] = append(buckets[day], msg)
	}

	for day, msgs := range buckets {
		days[index[day]].Conversations = GroupConversations(msgs, gap)
	}
	return days
}
