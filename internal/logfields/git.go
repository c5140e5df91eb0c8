package logfields

import "go.uber.org/zap"

func Repository(val string) zap.Field {
	return zap.String("git.repository", val)
}

func SourceRepository(val string) zap.Field {
	return zap.String("git.source_repository", val)
}

func BaseBranch(val string) zap.Field {
	return zap.String("git.base_branch", val)
}

func SourceBranch(val string) zap.Field {
	return zap.String("git.source_branch", val)
}

func Branch(val string) zap.Field {
	return zap.String("git.branch", val)
}

func Commit(val string) zap.Field {
	return zap.String("git.commit", val)
}

func WorkingDirectory(val string) zap.Field {
	return zap.String("git.working_directory", val)
}
