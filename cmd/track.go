package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/medilearn/healthxp/internal/activity"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record a learning event",
}

var trackModuleCmd = &cobra.Command{
	Use:   "module <module-id>",
	Short: "Record a completed module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := eventTime(cmd)
		if err != nil {
			return err
		}
		specialty, _ := cmd.Flags().GetString("specialty")
		minutes, _ := cmd.Flags().GetInt("minutes")
		total, _ := cmd.Flags().GetInt("total")
		return withLearner(cmd, func(e *env, learnerID string) error {
			res, err := e.svc.TrackModuleCompletion(cmd.Context(), learnerID, activity.ModuleCompleted{
				ModuleID:     args[0],
				Specialty:    specialty,
				Timestamp:    at,
				Minutes:      minutes,
				TotalModules: total,
			})
			return printResult(cmd, res, err)
		})
	},
}

var trackQuizCmd = &cobra.Command{
	Use:   "quiz <quiz-id>",
	Short: "Record a graded quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := eventTime(cmd)
		if err != nil {
			return err
		}
		specialty, _ := cmd.Flags().GetString("specialty")
		score, _ := cmd.Flags().GetFloat64("score")
		perfect, _ := cmd.Flags().GetBool("perfect")
		minutes, _ := cmd.Flags().GetInt("minutes")
		return withLearner(cmd, func(e *env, learnerID string) error {
			res, err := e.svc.TrackQuizCompletion(cmd.Context(), learnerID, activity.QuizCompleted{
				QuizID:    args[0],
				Specialty: specialty,
				Score:     score,
				IsPerfect: perfect || score >= 100,
				Timestamp: at,
				Minutes:   minutes,
			})
			return printResult(cmd, res, err)
		})
	},
}

var trackLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Record a session start",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := eventTime(cmd)
		if err != nil {
			return err
		}
		return withLearner(cmd, func(e *env, learnerID string) error {
			res, err := e.svc.TrackLogin(cmd.Context(), learnerID, activity.Login{Timestamp: at})
			return printResult(cmd, res, err)
		})
	},
}

var trackLabCmd = &cobra.Command{
	Use:   "lab <lab-id>",
	Short: "Record a reviewed lab result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := eventTime(cmd)
		if err != nil {
			return err
		}
		return withLearner(cmd, func(e *env, learnerID string) error {
			res, err := e.svc.TrackLabReview(cmd.Context(), learnerID, activity.LabReviewed{LabID: args[0], Timestamp: at})
			return printResult(cmd, res, err)
		})
	},
}

var trackShareCmd = &cobra.Command{
	Use:   "share <content-id>",
	Short: "Record shared content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := eventTime(cmd)
		if err != nil {
			return err
		}
		return withLearner(cmd, func(e *env, learnerID string) error {
			res, err := e.svc.TrackContentShare(cmd.Context(), learnerID, activity.ContentShared{ContentID: args[0], Timestamp: at})
			return printResult(cmd, res, err)
		})
	},
}

var trackTeachCmd = &cobra.Command{
	Use:   "teach",
	Short: "Record a teach-back session",
	Long:  "Record a teach-back session. The response is read from --response, or from --response-file (\"-\" for stdin).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := eventTime(cmd)
		if err != nil {
			return err
		}
		prompt, _ := cmd.Flags().GetString("prompt")
		specialty, _ := cmd.Flags().GetString("specialty")
		response, err := teachResponse(cmd)
		if err != nil {
			return err
		}
		return withLearner(cmd, func(e *env, learnerID string) error {
			res, err := e.svc.CompleteTeachingSession(cmd.Context(), learnerID, activity.TeachingSession{
				Prompt:    prompt,
				Response:  response,
				Specialty: specialty,
				Timestamp: at,
			})
			if err := printResult(cmd, res, err); err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); !asJSON && res.Applied > 0 {
				sessions := res.State.Progress.TeachingSessions
				fmt.Fprintf(cmd.OutOrStdout(), "Explanation quality: %d/100\n", sessions[len(sessions)-1].QualityScore)
			}
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{trackModuleCmd, trackQuizCmd, trackLoginCmd, trackLabCmd, trackShareCmd, trackTeachCmd} {
		c.Flags().String("at", "", "Event time in RFC 3339 (default now)")
		trackCmd.AddCommand(c)
	}

	trackModuleCmd.Flags().String("specialty", "", "Specialty slug, e.g. cardiology")
	trackModuleCmd.Flags().Int("minutes", 0, "Minutes spent")
	trackModuleCmd.Flags().Int("total", 0, "Modules in the specialty (default from config)")
	_ = trackModuleCmd.MarkFlagRequired("specialty")

	trackQuizCmd.Flags().String("specialty", "", "Specialty slug")
	trackQuizCmd.Flags().Float64("score", 0, "Score from 0 to 100")
	trackQuizCmd.Flags().Bool("perfect", false, "Mark as a perfect score")
	trackQuizCmd.Flags().Int("minutes", 0, "Minutes spent")
	_ = trackQuizCmd.MarkFlagRequired("specialty")
	_ = trackQuizCmd.MarkFlagRequired("score")

	trackTeachCmd.Flags().String("prompt", "", "Topic the learner explained")
	trackTeachCmd.Flags().String("response", "", "The learner's explanation")
	trackTeachCmd.Flags().String("response-file", "", "Read the explanation from a file")
	trackTeachCmd.Flags().String("specialty", "", "Specialty slug")
	_ = trackTeachCmd.MarkFlagRequired("prompt")
	trackTeachCmd.MarkFlagsMutuallyExclusive("response", "response-file")
	trackTeachCmd.MarkFlagsOneRequired("response", "response-file")
}

// eventTime parses --at, defaulting to now.
func eventTime(cmd *cobra.Command) (time.Time, error) {
	s, _ := cmd.Flags().GetString("at")
	if s == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", s, err)
	}
	return t, nil
}

func teachResponse(cmd *cobra.Command) (string, error) {
	if r, _ := cmd.Flags().GetString("response"); r != "" {
		return r, nil
	}
	path, _ := cmd.Flags().GetString("response-file")
	data, err := readInput(cmd, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
