package contract

import (
	"context"
	_ "embed"
	"fmt"
	"os"
)

//go:embed teal/approval.teal
var builtinApproval []byte

//go:embed teal/clear.teal
var builtinClear []byte

// programs 编译后的合约程序
type programs struct {
	approval []byte
	clear    []byte
}

func readSource(path string, builtin []byte) ([]byte, error) {
	if path == "" {
		return builtin, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program %s: %w", path, err)
	}
	return src, nil
}

// compiledPrograms 首次部署时编译，之后复用
func (s *Service) compiledPrograms(ctx context.Context) (*programs, error) {
	s.progMu.Lock()
	defer s.progMu.Unlock()
	if s.progs != nil {
		return s.progs, nil
	}

	approvalSrc, err := readSource(s.opts.ApprovalProgramPath, builtinApproval)
	if err != nil {
		return nil, err
	}
	clearSrc, err := readSource(s.opts.ClearProgramPath, builtinClear)
	if err != nil {
		return nil, err
	}
	approval, err := s.client.Compile(ctx, approvalSrc)
	if err != nil {
		return nil, fmt.Errorf("compile approval program: %w", err)
	}
	clear, err := s.client.Compile(ctx, clearSrc)
	if err != nil {
		return nil, fmt.Errorf("compile clear program: %w", err)
	}
	s.progs = &programs{approval: approval, clear: clear}
	s.logger.Debugf("合约程序已编译: approval=%dB, clear=%dB", len(approval), len(clear))
	return s.progs, nil
}
