package domain

import (
	"strconv"
	"time"
)

// Challenge is a named, code-joinable, time-boxed quiz instance.
type Challenge struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	ExamType      string    `json:"exam_type"`
	Difficulty    string    `json:"difficulty"`
	QuestionCount int       `json:"question_count"`
	TimeLimit     int       `json:"time_limit"` // minutes
	CreatedBy     int       `json:"created_by,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     Timestamp `json:"created_at"`
}

// TimeLimitSeconds is the full duration of an attempt.
func (c Challenge) TimeLimitSeconds() int {
	return c.TimeLimit * 60
}

// CompletedChallenge pairs a challenge with the caller's recorded result.
type CompletedChallenge struct {
	Challenge
	Result SubmissionRecord `json:"result"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID           int      `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"answer"`
	ImageURL     string   `json:"image_url,omitempty"`
	Difficulty   string   `json:"difficulty"`
	ExamType     string   `json:"exam_type"`
	Hint         string   `json:"hint,omitempty"`
}

// Phase is the lifecycle state of one attempt.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseSubmitting
	PhaseCompleted
	// PhaseAbandoned is terminal: the session was torn down before completion.
	PhaseAbandoned
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseInProgress:
		return "in_progress"
	case PhaseSubmitting:
		return "submitting"
	case PhaseCompleted:
		return "completed"
	case PhaseAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Submission is the payload sent to the remote submission endpoint.
// Answers maps question id to the selected option index.
type Submission struct {
	Answers   map[int]int `json:"answers"`
	TimeTaken int         `json:"time_taken"`
}

// SubmissionRecord is the result the backend recorded for a submission.
type SubmissionRecord struct {
	ID             int        `json:"id"`
	UserID         int        `json:"user_id"`
	ChallengeID    int        `json:"challenge_id"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	CorrectAnswers int        `json:"correct_answers"`
	WrongAnswers   int        `json:"wrong_answers"`
	TimeTaken      int        `json:"time_taken"`
	SubmittedAt    Timestamp  `json:"submitted_at"`
	UpdatedAt      *Timestamp `json:"updated_at,omitempty"`
}

// QuestionResult is one row of the post-submission review.
type QuestionResult struct {
	Question   Question
	UserAnswer *int
	IsAnswered bool
	IsCorrect  bool
}

// Result summarizes an attempt. It is computed once and never re-derived.
type Result struct {
	Correct    int
	Wrong      int
	Unanswered int
	Total      int
	Score      int
	Percentage int
	TimeTaken  int
	Questions  []QuestionResult
}

// PracticeSubmission is the best-effort practice record sent for leaderboards.
type PracticeSubmission struct {
	Questions      []PracticeQuestionRef `json:"questions"`
	Answers        map[int]int           `json:"answers"`
	Score          int                   `json:"score"`
	CorrectAnswers int                   `json:"correct_answers"`
	WrongAnswers   int                   `json:"wrong_answers"`
	TimeTaken      int                   `json:"time_taken"`
}

// PracticeQuestionRef identifies a practice question and its key.
type PracticeQuestionRef struct {
	ID     int `json:"id"`
	Answer int `json:"answer"`
}

// LeaderboardEntry is the canonical ranking row, whatever shape the backend sent.
type LeaderboardEntry struct {
	Rank                int
	UserID              int
	Username            string
	Score               int
	ChallengesCompleted int
	CorrectAnswers      int
	WrongAnswers        int
	UpdatedAt           time.Time
}

// LeaderboardQuery selects a board. ChallengeID is only used for challenge boards.
type LeaderboardQuery struct {
	Type        string
	ChallengeID int
}

const (
	LeaderboardGlobal    = "global"
	LeaderboardChallenge = "challenge"
)

// Key returns a stable cache key for the query.
func (q LeaderboardQuery) Key() string {
	if q.Type == LeaderboardChallenge && q.ChallengeID > 0 {
		return LeaderboardChallenge + ":" + strconv.Itoa(q.ChallengeID)
	}
	if q.ChallengeID > 0 {
		return q.Type + ":" + strconv.Itoa(q.ChallengeID)
	}
	if q.Type == "" {
		return LeaderboardGlobal
	}
	return q.Type
}

// Leaderboard is an ordered scoreboard snapshot.
type Leaderboard struct {
	Query     LeaderboardQuery
	Entries   []LeaderboardEntry
	FetchedAt time.Time
}

// User is a player account.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt Timestamp `json:"created_at"`
}

// Admin is an administrator account.
type Admin struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Profile holds exactly one of User or Admin.
type Profile struct {
	User  *User  `json:"user,omitempty"`
	Admin *Admin `json:"admin,omitempty"`
}

// Credentials are used for both player and admin login.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned by both player and admin login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user,omitempty"`
	Admin       *Admin `json:"admin,omitempty"`
}

// Registration is the sign-up form.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// CreateChallengeRequest is the create-challenge form.
type CreateChallengeRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	ExamType      string `json:"exam_type" validate:"required"`
	Difficulty    string `json:"difficulty" validate:"required,oneof=easy medium tough mixed"`
	QuestionCount int    `json:"question_count" validate:"min=1,max=100"`
	TimeLimit     int    `json:"time_limit" validate:"min=1,max=180"`
}

// JoinRequest carries a challenge join code.
type JoinRequest struct {
	Code string `json:"code" validate:"required,len=6,alphanum"`
}

// NewQuestion is the admin create-question form.
type NewQuestion struct {
	Text       string   `json:"text" validate:"required"`
	Options    []string `json:"options" validate:"len=4,dive,required"`
	Answer     int      `json:"answer" validate:"min=0,max=3"`
	Difficulty string   `json:"difficulty" validate:"required"`
	ExamType   string   `json:"exam_type" validate:"required"`
	Hint       string   `json:"hint,omitempty"`
}

// AdminDashboard is the admin statistics view. Fields the backend omits stay zero.
type AdminDashboard struct {
	TotalUsers      int `json:"total_users"`
	TotalQuestions  int `json:"total_questions"`
	TotalChallenges int `json:"total_challenges"`
	TotalResults    int `json:"total_results"`
}

// BulkDeleteResult reports the outcome of a bulk question delete.
type BulkDeleteResult struct {
	SuccessCount int   `json:"success_count"`
	FailedCount  int   `json:"failed_count"`
	FailedIDs    []int `json:"failed_ids,omitempty"`
}

// UploadResult reports questions extracted from an uploaded PDF.
type UploadResult struct {
	QuestionsAdded int            `json:"questions_added"`
	Breakdown      map[string]int `json:"breakdown"`
}
