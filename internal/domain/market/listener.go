package market

// Listener receives canonical events from a market socket.
type Listener func(Event)

// ListenerID 注册监听器时返回的句柄，用于移除（func 不可比较）
type ListenerID uint64
