package logfields

import "go.uber.org/zap"

func PullRequest(val int) zap.Field {
	return zap.Int("github.pull_request", val)
}

func PullRequestURL(val string) zap.Field {
	return zap.String("github.pull_request_url", val)
}

func Draft(val bool) zap.Field {
	return zap.Bool("github.draft", val)
}

func Assignee(val string) zap.Field {
	return zap.String("github.assignee", val)
}

func Label(val string) zap.Field {
	return zap.String("github.label", val)
}

func Version(val string) zap.Field {
	return zap.String("backport.version", val)
}

func Outcome(val string) zap.Field {
	return zap.String("outcome", val)
}

func Reason(val string) zap.Field {
	return zap.String("reason", val)
}

func DryRun(val bool) zap.Field {
	return zap.Bool("dry_run", val)
}

func ConfigurationFile(val string) zap.Field {
	return zap.String("config_file", val)
}
