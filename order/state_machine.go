package order

import "fmt"

// StateTransition 状态转换
type StateTransition struct {
	From Status
	To   Status
}

// StateMachine 订单状态机，初始化后只读。
type StateMachine struct {
	transitions map[StateTransition]bool
}

// NewStateMachine 创建新的状态机
func NewStateMachine() *StateMachine {
	sm := &StateMachine{
		transitions: make(map[StateTransition]bool),
	}
	sm.initializeTransitions()
	return sm
}

// initializeTransitions 初始化所有合法的状态转换
func (sm *StateMachine) initializeTransitions() {
	legalTransitions := []StateTransition{
		// 提交时同步进入 PLACED
		{StatusNew, StatusPlaced},

		// 成交或撤单；未成交则保持 PLACED，不再重新撮合
		{StatusPlaced, StatusExecuted},
		{StatusPlaced, StatusCancelled},

		// 终态不能转换（EXECUTED, CANCELLED）
	}

	for _, t := range legalTransitions {
		sm.transitions[t] = true
	}
}

// ValidateTransition 验证状态转换是否合法
func (sm *StateMachine) ValidateTransition(from, to Status) error {
	if !sm.transitions[StateTransition{From: from, To: to}] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, from, to)
	}
	return nil
}

// Transition 校验后修改订单状态。
func (sm *StateMachine) Transition(o *Order, to Status) error {
	if err := sm.ValidateTransition(o.Status, to); err != nil {
		return err
	}
	o.Status = to
	return nil
}

// AllowedTransitions 返回当前状态所有合法的目标状态
func (sm *StateMachine) AllowedTransitions(current Status) []Status {
	allowed := make([]Status, 0)
	for transition := range sm.transitions {
		if transition.From == current {
			allowed = append(allowed, transition.To)
		}
	}
	return allowed
}

// IsFinalState 判断是否是终态
func (sm *StateMachine) IsFinalState(status Status) bool {
	switch status {
	case StatusExecuted, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanCancel 只有 PLACED 可以撤单
func (sm *StateMachine) CanCancel(status Status) bool {
	return status == StatusPlaced
}

// GetStateDescription 获取状态描述
func (sm *StateMachine) GetStateDescription(status Status) string {
	descriptions := map[Status]string{
		StatusNew:       "订单已创建",
		StatusPlaced:    "订单已挂出",
		StatusExecuted:  "订单已成交",
		StatusCancelled: "订单已撤销",
	}

	if desc, ok := descriptions[status]; ok {
		return desc
	}
	return "未知状态"
}
