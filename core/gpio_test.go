package core

import (
	"errors"
	"testing"
)

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	pins    map[GPIOPin]bool
	inputs  map[GPIOPin]bool
	outputs map[GPIOPin]bool
	maxPin  GPIOPin
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:    make(map[GPIOPin]bool),
		inputs:  make(map[GPIOPin]bool),
		outputs: make(map[GPIOPin]bool),
		maxPin:  29, // RP2040 pin range
	}
}

var errInvalidPin = errors.New("invalid pin")

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	if pin > m.maxPin {
		return errInvalidPin
	}
	m.outputs[pin] = true
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) ConfigureInput(pin GPIOPin) error {
	if pin > m.maxPin {
		return errInvalidPin
	}
	m.inputs[pin] = true
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin GPIOPin) error {
	if err := m.ConfigureInput(pin); err != nil {
		return err
	}
	m.pins[pin] = true
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullDown(pin GPIOPin) error {
	return m.ConfigureInput(pin)
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	if pin > m.maxPin {
		return errInvalidPin
	}
	m.pins[pin] = value
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	if pin > m.maxPin {
		return false, errInvalidPin
	}
	return m.pins[pin], nil
}

func (m *MockGPIODriver) ReadPin(pin GPIOPin) bool {
	return m.pins[pin]
}

// SetInput drives a simulated input pin (test helper)
func (m *MockGPIODriver) SetInput(pin GPIOPin, value bool) {
	m.pins[pin] = value
}

func TestGPIODriverBasic(t *testing.T) {
	mockDriver := NewMockGPIODriver()
	SetGPIODriver(mockDriver)

	pin := GPIOPin(25)
	if err := mockDriver.ConfigureOutput(pin); err != nil {
		t.Fatalf("ConfigureOutput failed: %v", err)
	}

	if err := mockDriver.SetPin(pin, true); err != nil {
		t.Fatalf("SetPin(true) failed: %v", err)
	}
	if state, _ := mockDriver.GetPin(pin); !state {
		t.Errorf("Expected pin to be high, got low")
	}

	if err := mockDriver.SetPin(pin, false); err != nil {
		t.Fatalf("SetPin(false) failed: %v", err)
	}
	if state, _ := mockDriver.GetPin(pin); state {
		t.Errorf("Expected pin to be low, got high")
	}
}

func TestGPIODriverInvalidPin(t *testing.T) {
	mockDriver := NewMockGPIODriver()

	if err := mockDriver.ConfigureInput(GPIOPin(99)); err == nil {
		t.Error("ConfigureInput accepted out-of-range pin")
	}
	if err := mockDriver.ConfigureOutput(GPIOPin(40)); err == nil {
		t.Error("ConfigureOutput accepted out-of-range pin")
	}
}

func TestDigitalOutConfigAndUpdate(t *testing.T) {
	mockDriver := NewMockGPIODriver()
	SetGPIODriver(mockDriver)
	InitGPIOCommands()

	// config_digital_out oid=1 pin=25 value=1 default_value=0 max_duration=0
	frame := buildArgs(1, 25, 1, 0, 0)
	if err := handleConfigDigitalOut(&frame); err != nil {
		t.Fatalf("config_digital_out failed: %v", err)
	}

	dout, exists := digitalOutputs[1]
	if !exists {
		t.Fatal("digital output not registered")
	}
	if dout.Pin != GPIOPin(25) {
		t.Errorf("Expected pin 25, got %d", dout.Pin)
	}
	if !mockDriver.ReadPin(25) {
		t.Error("initial value not applied to pin")
	}

	// update_digital_out oid=1 value=0
	frame = buildArgs(1, 0)
	if err := handleUpdateDigitalOut(&frame); err != nil {
		t.Fatalf("update_digital_out failed: %v", err)
	}
	if mockDriver.ReadPin(25) {
		t.Error("update did not drive pin low")
	}
}

func TestDigitalOutInvalidPinIsConfigError(t *testing.T) {
	mockDriver := NewMockGPIODriver()
	SetGPIODriver(mockDriver)

	frame := buildArgs(2, 99, 0, 0, 0)
	if err := handleConfigDigitalOut(&frame); err == nil {
		t.Error("config_digital_out accepted unconfigurable pin")
	}
}
