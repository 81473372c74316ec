// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package optimizers

const (
	// AdamDefaultLearningRate is used by Adam if no learning rate is set.
	AdamDefaultLearningRate = 0.001

	// SGDDefaultLearningRate is used by StochasticGradientDescent if no learning rate is set.
	SGDDefaultLearningRate = 0.01

	// RMSPropDefaultLearningRate is used by RMSProp if no learning rate is set.
	RMSPropDefaultLearningRate = 0.001
)

// AdamConfig holds the configuration of an Adam optimizer. Create it with Adam() and, once
// configured, call Done.
type AdamConfig struct {
	learningRate float64
	beta1, beta2 float64
	epsilon      float64
	amsGrad      bool
	adamax       bool
	weightDecay  float64
}

// Adam optimizer configuration, with the default values of Kingma et al., 2014.
func Adam() *AdamConfig {
	return &AdamConfig{
		learningRate: AdamDefaultLearningRate,
		beta1:        0.9,
		beta2:        0.999,
		epsilon:      1e-7,
	}
}

// LearningRate sets the base learning rate. Default is AdamDefaultLearningRate.
func (c *AdamConfig) LearningRate(value float64) *AdamConfig {
	c.learningRate = value
	return c
}

// Betas sets the two moving averages constants (exponential decays). They default to 0.9 and 0.999.
func (c *AdamConfig) Betas(beta1, beta2 float64) *AdamConfig {
	c.beta1, c.beta2 = beta1, beta2
	return c
}

// Epsilon used on the denominator as a small constant for stability.
func (c *AdamConfig) Epsilon(epsilon float64) *AdamConfig {
	c.epsilon = epsilon
	return c
}

// Adamax configures Adam to use an L-infinity norm (max) for the second moment.
func (c *AdamConfig) Adamax() *AdamConfig {
	c.adamax = true
	return c
}

// WeightDecay configures the optimizer to work as AdamW, with the given static weight decay.
// Default is 0, which means no weight decay.
func (c *AdamConfig) WeightDecay(weightDecay float64) *AdamConfig {
	c.weightDecay = weightDecay
	return c
}

// AMSGrad enables the AMSGrad variant of Adam.
func (c *AdamConfig) AMSGrad(amsGrad bool) *AdamConfig {
	c.amsGrad = amsGrad
	return c
}

// Done returns the configured Optimizer. Its name is "Adam", "Adamax" or "AdamW" depending on the configuration.
func (c *AdamConfig) Done() *Optimizer {
	name := "Adam"
	if c.adamax {
		name = "Adamax"
	} else if c.weightDecay > 0 {
		name = "AdamW"
	}
	opt := New(name)
	opt.params.Set(LearningRateKey, c.learningRate)
	opt.params.Set("beta_1", c.beta1)
	opt.params.Set("beta_2", c.beta2)
	opt.params.Set("epsilon", c.epsilon)
	opt.params.Set("amsgrad", c.amsGrad)
	opt.params.Set(WeightDecayKey, c.weightDecay)
	return opt
}

// SGDConfig holds the configuration of a stochastic gradient descent optimizer.
type SGDConfig struct {
	learningRate, momentum float64
	nesterov               bool
}

// StochasticGradientDescent optimizer configuration.
func StochasticGradientDescent() *SGDConfig {
	return &SGDConfig{learningRate: SGDDefaultLearningRate}
}

// LearningRate sets the learning rate. Default is SGDDefaultLearningRate.
func (c *SGDConfig) LearningRate(value float64) *SGDConfig {
	c.learningRate = value
	return c
}

// Momentum sets the momentum, and whether to use Nesterov momentum.
func (c *SGDConfig) Momentum(momentum float64, nesterov bool) *SGDConfig {
	c.momentum, c.nesterov = momentum, nesterov
	return c
}

// Done returns the configured Optimizer, named "SGD".
func (c *SGDConfig) Done() *Optimizer {
	opt := New("SGD")
	opt.params.Set(LearningRateKey, c.learningRate)
	opt.params.Set("momentum", c.momentum)
	opt.params.Set("nesterov", c.nesterov)
	return opt
}

// RMSPropConfig holds the configuration of an RMSProp optimizer.
type RMSPropConfig struct {
	learningRate, rho, momentum, epsilon float64
	centered                             bool
}

// RMSProp optimizer configuration.
func RMSProp() *RMSPropConfig {
	return &RMSPropConfig{
		learningRate: RMSPropDefaultLearningRate,
		rho:          0.9,
		epsilon:      1e-7,
	}
}

// LearningRate sets the learning rate. Default is RMSPropDefaultLearningRate.
func (c *RMSPropConfig) LearningRate(value float64) *RMSPropConfig {
	c.learningRate = value
	return c
}

// Rho sets the discounting factor for the moving average of the squared gradients. Default is 0.9.
func (c *RMSPropConfig) Rho(rho float64) *RMSPropConfig {
	c.rho = rho
	return c
}

// Momentum sets the momentum. Default is 0.
func (c *RMSPropConfig) Momentum(momentum float64) *RMSPropConfig {
	c.momentum = momentum
	return c
}

// Centered normalizes the gradients by their estimated variance.
func (c *RMSPropConfig) Centered(centered bool) *RMSPropConfig {
	c.centered = centered
	return c
}

// Done returns the configured Optimizer, named "RMSprop".
func (c *RMSPropConfig) Done() *Optimizer {
	opt := New("RMSprop")
	opt.params.Set(LearningRateKey, c.learningRate)
	opt.params.Set("rho", c.rho)
	opt.params.Set("momentum", c.momentum)
	opt.params.Set("epsilon", c.epsilon)
	opt.params.Set("centered", c.centered)
	return opt
}
